// Package memstore 提供内存版的 IdentityStore / ContentStore 实现
//
// 用于单元测试和 handler 级测试，语义与 mongostore 对齐：
// findOne 未命中返回 (nil, nil)，删除/更新未命中返回 ErrNotFound，
// email 重复返回 ErrDuplicate，重置挑战消费未命中返回 ErrConflict。
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"noteshare/internal/model"
	"noteshare/internal/storage"
)

// ============================================================================
// IdentityStore
// ============================================================================

// IdentityStore 内存用户库
type IdentityStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// NewIdentityStore 创建内存用户库
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{users: make(map[string]*model.User)}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	if u.ResetCodeExpiry != nil {
		t := *u.ResetCodeExpiry
		c.ResetCodeExpiry = &t
	}
	return &c
}

func (s *IdentityStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *IdentityStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *IdentityStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *IdentityStore) GetUsersByIDs(_ context.Context, ids []string) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result = append(result, cloneUser(u))
		}
	}
	return result, nil
}

func (s *IdentityStore) ListUsers(_ context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.User{}
	for _, u := range s.users {
		result = append(result, cloneUser(u))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *IdentityStore) UpdateUserRole(_ context.Context, id string, role model.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return nil
}

func (s *IdentityStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *IdentityStore) SetResetChallenge(_ context.Context, id, code string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.ResetCode = code
	u.ResetCodeExpiry = &expiry
	u.UpdatedAt = time.Now()
	return nil
}

func (s *IdentityStore) ConsumeResetCode(_ context.Context, id, code, newPasswordHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrConflict
	}
	if u.ResetCode == "" || u.ResetCode != code {
		return storage.ErrConflict
	}
	if u.ResetCodeExpiry == nil || !u.ResetCodeExpiry.After(now) {
		return storage.ErrConflict
	}
	u.PasswordHash = newPasswordHash
	u.ResetCode = ""
	u.ResetCodeExpiry = nil
	u.UpdatedAt = now
	return nil
}

// Compile-time interface check
var _ storage.IdentityStore = (*IdentityStore)(nil)

// ============================================================================
// ContentStore
// ============================================================================

// ContentStore 内存内容库
type ContentStore struct {
	mu       sync.RWMutex
	notes    map[string]*model.Note
	comments map[string]*model.Comment
}

// NewContentStore 创建内存内容库
func NewContentStore() *ContentStore {
	return &ContentStore{
		notes:    make(map[string]*model.Note),
		comments: make(map[string]*model.Comment),
	}
}

func cloneNote(n *model.Note) *model.Note {
	c := *n
	c.Ratings = append([]model.Rating(nil), n.Ratings...)
	return &c
}

func (s *ContentStore) CreateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[note.ID]; ok {
		return storage.ErrDuplicate
	}
	s.notes[note.ID] = cloneNote(note)
	return nil
}

func (s *ContentStore) GetNote(_ context.Context, id string) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, nil
	}
	return cloneNote(n), nil
}

func (s *ContentStore) ListNotes(_ context.Context) ([]*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.Note{}
	for _, n := range s.notes {
		result = append(result, cloneNote(n))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *ContentStore) SearchNotes(_ context.Context, query string) ([]*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	result := []*model.Note{}
	for _, n := range s.notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			result = append(result, cloneNote(n))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *ContentStore) UpdateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[note.ID]
	if !ok {
		return storage.ErrNotFound
	}
	n.Title = note.Title
	n.Content = note.Content
	n.FileKey = note.FileKey
	n.FileType = note.FileType
	n.UpdatedAt = time.Now()
	return nil
}

func (s *ContentStore) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

// UpsertRating 在单个锁临界区内完成匹配更新，与 mongostore 的原子语义对齐
func (s *ContentStore) UpsertRating(_ context.Context, noteID, raterID string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok {
		return storage.ErrNotFound
	}
	for i := range n.Ratings {
		if n.Ratings[i].UserID == raterID {
			n.Ratings[i].Value = value
			return nil
		}
	}
	n.Ratings = append(n.Ratings, model.Rating{UserID: raterID, Value: value})
	return nil
}

func (s *ContentStore) CreateComment(_ context.Context, comment *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[comment.ID]; ok {
		return storage.ErrDuplicate
	}
	c := *comment
	s.comments[comment.ID] = &c
	return nil
}

func (s *ContentStore) GetComment(_ context.Context, id string) (*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (s *ContentStore) ListCommentsByNote(_ context.Context, noteID string) ([]*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*model.Comment{}
	for _, c := range s.comments {
		if c.NoteID == noteID {
			clone := *c
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *ContentStore) UpdateComment(_ context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = time.Now()
	return nil
}

func (s *ContentStore) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// Compile-time interface check
var _ storage.ContentStore = (*ContentStore)(nil)
