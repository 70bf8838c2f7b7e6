// Package resolve 跨库引用解析
//
// 内容库中的笔记/评论只保存用户 ID，两库之间没有引用完整性约束。
// 本包在读取路径上把这些外部 ID 批量换取用户投影：
// 收集去重后的 ID 集合，对用户库发起一次批量查询（与条目数无关的 O(1) 往返），
// 查不到的 ID 降级为 "Unknown" 占位投影，单条引用悬空不影响整体读取。
package resolve

import (
	"context"
	"fmt"

	"noteshare/internal/model"
)

// UserBatchGetter resolver 对用户库的唯一依赖
type UserBatchGetter interface {
	GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error)
}

// Resolver 跨库引用解析器
type Resolver struct {
	identity UserBatchGetter
}

// New 创建解析器
func New(identity UserBatchGetter) *Resolver {
	return &Resolver{identity: identity}
}

// Resolve 把 ID 集合换成 id → 投影表
//
// 输入 ID 可以重复、为空串或根本不存在于用户库，
// 返回的表中每个输入 ID 都有条目：查到的是真实投影，查不到的是 Unknown 占位。
// 只有用户库本身不可用时才返回错误。
func (r *Resolver) Resolve(ctx context.Context, ids []string) (map[string]model.UserRef, error) {
	refs := make(map[string]model.UserRef, len(ids))

	// 去重，空串视为已知悬空，不参与查询
	distinct := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, seen := refs[id]; seen {
			continue
		}
		refs[id] = model.UnknownUserRef(id)
		if id != "" {
			distinct = append(distinct, id)
		}
	}

	if len(distinct) == 0 {
		return refs, nil
	}

	users, err := r.identity.GetUsersByIDs(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("resolve user refs: %w", err)
	}
	for _, u := range users {
		refs[u.ID] = model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return refs, nil
}

// NoteViews 为一批笔记附加所有者投影（一次批量查询）
func (r *Resolver) NoteViews(ctx context.Context, notes []*model.Note) ([]model.NoteView, error) {
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.OwnerID)
	}
	refs, err := r.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]model.NoteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, model.NoteView{Note: *n, Owner: refs[n.OwnerID]})
	}
	return views, nil
}

// NoteView 单条笔记的视图
func (r *Resolver) NoteView(ctx context.Context, note *model.Note) (*model.NoteView, error) {
	views, err := r.NoteViews(ctx, []*model.Note{note})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CommentViews 为一批评论附加作者投影（一次批量查询）
func (r *Resolver) CommentViews(ctx context.Context, comments []*model.Comment) ([]model.CommentView, error) {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	refs, err := r.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]model.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, model.CommentView{Comment: *c, Author: refs[c.UserID]})
	}
	return views, nil
}
