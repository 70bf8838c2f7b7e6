// Package objstore 封装 MinIO 对象存储客户端
//
// 笔记附件以不透明 key 存取，数据库只保存 key 字符串。
// 上传前按允许列表校验 MIME 类型，删除按 key 幂等（删除不存在的对象不报错）。
package objstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config MinIO 连接配置
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"` // 只从 MINIO_ACCESS_KEY 环境变量读取
	SecretKey string `yaml:"-"` // 只从 MINIO_SECRET_KEY 环境变量读取
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// allowedTypes 附件 MIME 允许列表
var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"application/vnd.ms-powerpoint": ".ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
}

// AllowedType 判定 MIME 类型是否在允许列表内
func AllowedType(contentType string) bool {
	_, ok := allowedTypes[contentType]
	return ok
}

// ObjectKey 为上传文件生成存储 key：时间戳 + 原始扩展名
func ObjectKey(filename string) string {
	return fmt.Sprintf("%d%s", time.Now().UnixNano(), path.Ext(filename))
}

// Store 附件存储接口（api 层依赖此接口，测试用内存实现替换）
type Store interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// Client MinIO 客户端封装
type Client struct {
	mc     *minio.Client
	bucket string
}

// NewClient 创建 MinIO 客户端
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "noteshare"
	}

	return &Client{mc: mc, bucket: bucket}, nil
}

// EnsureBucket 确保 bucket 存在
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("[objstore] Created bucket: %s", c.bucket)
	}
	return nil
}

// Upload 上传对象
func (c *Client) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.mc.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Download 下载对象，返回流和存储时的 MIME 类型，调用方负责关闭流
func (c *Client) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", key, err)
	}
	// 验证对象存在（GetObject 不会立即返回错误）
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, "", fmt.Errorf("stat %s: %w", key, err)
	}
	return obj, stat.ContentType, nil
}

// Delete 删除对象，按 key 幂等：对象不存在不报错
func (c *Client) Delete(ctx context.Context, key string) error {
	err := c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

var _ Store = (*Client)(nil)
