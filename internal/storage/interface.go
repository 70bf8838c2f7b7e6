package storage

import (
	"context"
	"time"

	"noteshare/internal/model"
)

// IdentityStore 用户库存储接口
//
// 用户与内容存放在两个独立寻址的数据库中，互相之间只保存对方的 ID，
// 没有跨库引用完整性。本接口只覆盖用户库。
type IdentityStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUsersByIDs 批量查询：一次往返返回 ID 集合中存在的用户。
	// 不存在的 ID 静默缺失，不报错。resolver 依赖此方法保证 O(1) 往返。
	GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error)

	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUserRole(ctx context.Context, id string, role model.UserRole) error
	DeleteUser(ctx context.Context, id string) error

	// SetResetChallenge 写入密码重置挑战，覆盖未消费的旧挑战
	SetResetChallenge(ctx context.Context, id, code string, expiry time.Time) error

	// ConsumeResetCode 原子消费重置挑战：
	// 仅当 code 精确匹配且 now 早于过期时间时，替换密码哈希并清空挑战字段。
	// 未命中（码错误/过期/已消费）返回 ErrConflict，挑战字段保持原样。
	ConsumeResetCode(ctx context.Context, id, code, newPasswordHash string, now time.Time) error
}

// ContentStore 内容库存储接口（笔记、评论、评分）
type ContentStore interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, id string) (*model.Note, error)
	ListNotes(ctx context.Context) ([]*model.Note, error)

	// SearchNotes 大小写不敏感的子串匹配，作用于标题和正文
	SearchNotes(ctx context.Context, query string) ([]*model.Note, error)

	// UpdateNote 更新标题/正文/文件字段（owner_id 不可变，不在更新范围内）
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, id string) error

	// UpsertRating 评分插入或覆盖，按 (note, rater) 保证至多一条。
	// 必须是原子的匹配更新，不允许整文档读-改-写，
	// 以免并发评分互相覆盖。笔记不存在返回 ErrNotFound。
	UpsertRating(ctx context.Context, noteID, raterID string, value int) error

	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	ListCommentsByNote(ctx context.Context, noteID string) ([]*model.Comment, error)
	UpdateComment(ctx context.Context, id, content string) error
	DeleteComment(ctx context.Context, id string) error
}
