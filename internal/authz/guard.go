// Package authz 所有者或管理员（owner-or-admin）鉴权
//
// 笔记/评论的所有变更操作统一经过 CanMutate 判定，
// 不在各 handler 里散落内联条件。评分提交只要求登录，不做所有权判定。
package authz

import "noteshare/internal/model"

// Actor 发起操作的已认证身份
type Actor struct {
	ID   string
	Role model.UserRole
}

// IsAdmin 是否持有管理员权限
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == model.UserRoleAdmin
}

// CanMutate 判定 actor 是否可以变更 ownerID 所拥有的实体
//
// 允许当且仅当 actor 即所有者，或 actor 是管理员。没有其他放行路径。
func CanMutate(actor *Actor, ownerID string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == model.UserRoleAdmin {
		return true
	}
	return actor.ID == ownerID
}
