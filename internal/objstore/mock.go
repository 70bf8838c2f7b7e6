package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemStore 内存附件存储（用于测试）
type MemStore struct {
	mu      sync.Mutex
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

// NewMemStore 创建内存附件存储
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]memObject)}
}

func (s *MemStore) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (s *MemStore) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("stat %s: object not found", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

// Delete 幂等删除
func (s *MemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Has 对象是否存在（测试断言用）
func (s *MemStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

var _ Store = (*MemStore)(nil)
