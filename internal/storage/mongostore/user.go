package mongostore

import (
	"context"
	"time"

	"noteshare/internal/model"
	"noteshare/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// IdentityStore 用户操作
// ============================================================================

func (s *IdentityStore) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *IdentityStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *IdentityStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

// GetUsersByIDs 批量查询用户，一次 $in 往返
// 不存在的 ID 静默缺失
func (s *IdentityStore) GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	return findMany[model.User](ctx, s.col(ColUsers), filter)
}

func (s *IdentityStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{}, opts)
}

func (s *IdentityStore) UpdateUserRole(ctx context.Context, id string, role model.UserRole) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "role", Value: role},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *IdentityStore) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColUsers), id)
}

// SetResetChallenge 写入密码重置挑战，覆盖未消费的旧挑战
func (s *IdentityStore) SetResetChallenge(ctx context.Context, id, code string, expiry time.Time) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "reset_code", Value: code},
		{Key: "reset_code_expiry", Value: expiry},
		{Key: "updated_at", Value: time.Now()},
	})
}

// ConsumeResetCode 原子消费重置挑战
//
// 过滤条件同时匹配 _id、reset_code 和未过期的 reset_code_expiry，
// 命中则在同一次 UpdateOne 中替换密码哈希并清空挑战字段。
// 未命中（码错误/过期/已消费）返回 ErrConflict，文档保持原样。
func (s *IdentityStore) ConsumeResetCode(ctx context.Context, id, code, newPasswordHash string, now time.Time) error {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "reset_code", Value: code},
		{Key: "reset_code_expiry", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: newPasswordHash},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$unset", Value: bson.D{
			{Key: "reset_code", Value: ""},
			{Key: "reset_code_expiry", Value: ""},
		}},
	}
	res, err := s.col(ColUsers).UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrConflict
	}
	return nil
}

// Compile-time interface check
var _ storage.IdentityStore = (*IdentityStore)(nil)
