package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// Valid 角色值是否合法
func (r UserRole) Valid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}

// User 用户（存储在独立的用户数据库中）
//
// ResetCode/ResetCodeExpiry 构成密码重置挑战：
// 每个用户最多同时存在一个挑战，消费或过期后必须清空。
type User struct {
	ID              string     `json:"id" bson:"_id"`
	Name            string     `json:"name" bson:"name"`
	Email           string     `json:"email" bson:"email"`
	PasswordHash    string     `json:"-" bson:"password_hash"` // never expose in JSON
	Role            UserRole   `json:"role" bson:"role"`
	ResetCode       string     `json:"-" bson:"reset_code,omitempty"`
	ResetCodeExpiry *time.Time `json:"-" bson:"reset_code_expiry,omitempty"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
}

// UserRef 用户投影（跨库引用解析结果）
//
// 笔记/评论只保存用户 ID，展示时由 resolver 批量换取此投影。
// 引用悬空（用户已删除或 ID 非法）时返回 UnknownUserRef，而不是报错。
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnknownUserRef 返回悬空引用的占位投影
func UnknownUserRef(id string) UserRef {
	return UserRef{ID: id, Name: "Unknown", Email: ""}
}
