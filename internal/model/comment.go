package model

import "time"

// Comment 评论（存储在内容数据库中，与笔记同库不同集合）
//
// UserID 指向用户数据库，NoteID 指向同库的笔记集合。
// UserID 在创建后不可变。
type Comment struct {
	ID        string    `json:"id" bson:"_id"`
	NoteID    string    `json:"note_id" bson:"note_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// CommentView 带作者投影的评论视图
type CommentView struct {
	Comment
	Author UserRef `json:"author"`
}
