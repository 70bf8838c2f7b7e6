package model

import "time"

// Rating 单条评分：每个 (笔记, 评分人) 至多一条
type Rating struct {
	UserID string `json:"user_id" bson:"user_id"`
	Value  int    `json:"value" bson:"value"` // 1-5
}

// Note 笔记（存储在内容数据库中）
//
// OwnerID 指向用户数据库中的用户，两库之间没有外键约束，
// 引用在读取时由 resolver 解析。OwnerID 在创建时写入一次，之后不可变。
type Note struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	FileKey   string    `json:"file_key" bson:"file_key"`   // 对象存储中的定位符
	FileType  string    `json:"file_type" bson:"file_type"` // MIME type
	OwnerID   string    `json:"owner_id" bson:"owner_id"`
	Ratings   []Rating  `json:"ratings" bson:"ratings"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NoteView 带所有者投影的笔记视图（列表/详情接口返回）
type NoteView struct {
	Note
	Owner UserRef `json:"owner"`
}

// RatingSummary 评分聚合结果
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// AverageRating 计算平均评分
//
// 空列表返回 average=0, count=0（沿用 count||1 约定），不会除零。
func AverageRating(ratings []Rating) RatingSummary {
	sum := 0
	for _, r := range ratings {
		sum += r.Value
	}
	count := len(ratings)
	div := count
	if div == 0 {
		div = 1
	}
	return RatingSummary{
		Average: float64(sum) / float64(div),
		Count:   count,
	}
}
