// Package mongostore 实现基于 MongoDB 的 IdentityStore 和 ContentStore
//
// 用户库与内容库是两个独立的 MongoDB 连接（各自的 URI），
// 互相之间没有外键约束，跨库引用在读取时由 resolver 解析。
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection 名称常量
const (
	ColUsers    = "users"
	ColNotes    = "notes"
	ColComments = "comments"
)

// connect 建立连接并验证
func connect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}
	return client, nil
}

func disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}

// ============================================================================
// IdentityStore（用户库）
// ============================================================================

// IdentityStore 用户库的 MongoDB 驱动
type IdentityStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewIdentityStore 连接用户库
//
// uri: 用户库连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "noteshare_users"
func NewIdentityStore(uri, dbName string) (*IdentityStore, error) {
	client, err := connect(uri)
	if err != nil {
		return nil, err
	}

	s := &IdentityStore{client: client, db: client.Database(dbName)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure identity indexes failed: %v", err)
	}

	return s, nil
}

// Close 关闭用户库连接
func (s *IdentityStore) Close() error {
	return disconnect(s.client)
}

func (s *IdentityStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes 创建用户库索引（email 唯一）
func (s *IdentityStore) ensureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.col(ColUsers).Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create index on %s: %w", ColUsers, err)
	}
	return nil
}

// ============================================================================
// ContentStore（内容库）
// ============================================================================

// ContentStore 内容库的 MongoDB 驱动
type ContentStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewContentStore 连接内容库
func NewContentStore(uri, dbName string) (*ContentStore, error) {
	client, err := connect(uri)
	if err != nil {
		return nil, err
	}

	s := &ContentStore{client: client, db: client.Database(dbName)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure content indexes failed: %v", err)
	}

	return s, nil
}

// Close 关闭内容库连接
func (s *ContentStore) Close() error {
	return disconnect(s.client)
}

func (s *ContentStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes 创建内容库索引
func (s *ContentStore) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col  string
		keys bson.D
	}

	indexes := []idx{
		{ColNotes, bson.D{{Key: "owner_id", Value: 1}}},
		{ColNotes, bson.D{{Key: "created_at", Value: -1}}},
		{ColComments, bson.D{{Key: "note_id", Value: 1}}},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
