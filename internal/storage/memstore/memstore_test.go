package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"noteshare/internal/model"
	"noteshare/internal/storage"
)

func newUser(id, email string) *model.User {
	now := time.Now()
	return &model.User{
		ID:        id,
		Name:      "User " + id,
		Email:     email,
		Role:      model.UserRoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newNote(id, ownerID string) *model.Note {
	now := time.Now()
	return &model.Note{
		ID:        id,
		Title:     "Note " + id,
		Content:   "content",
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIdentityStoreDuplicateEmail(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	if err := s.CreateUser(ctx, newUser("u1", "a@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err := s.CreateUser(ctx, newUser("u2", "a@example.com"))
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate email: err = %v, want ErrDuplicate", err)
	}
}

func TestIdentityStoreMissReturnsNilNil(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	u, err := s.GetUserByID(ctx, "nope")
	if u != nil || err != nil {
		t.Errorf("GetUserByID miss = (%v, %v), want (nil, nil)", u, err)
	}
	u, err = s.GetUserByEmail(ctx, "nope@example.com")
	if u != nil || err != nil {
		t.Errorf("GetUserByEmail miss = (%v, %v), want (nil, nil)", u, err)
	}
}

func TestIdentityStoreClones(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	if err := s.CreateUser(ctx, newUser("u1", "a@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// 改写返回的副本不能污染存储内部状态
	u, _ := s.GetUserByID(ctx, "u1")
	u.Role = model.UserRoleAdmin
	again, _ := s.GetUserByID(ctx, "u1")
	if again.Role != model.UserRoleUser {
		t.Error("mutating a returned user leaked into the store")
	}
}

func TestConsumeResetCode(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *IdentityStore {
		t.Helper()
		s := NewIdentityStore()
		if err := s.CreateUser(ctx, newUser("u1", "a@example.com")); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		return s
	}

	t.Run("valid consume clears challenge", func(t *testing.T) {
		s := setup(t)
		s.SetResetChallenge(ctx, "u1", "123456", time.Now().Add(15*time.Minute))

		if err := s.ConsumeResetCode(ctx, "u1", "123456", "newhash", time.Now()); err != nil {
			t.Fatalf("ConsumeResetCode: %v", err)
		}
		u, _ := s.GetUserByID(ctx, "u1")
		if u.PasswordHash != "newhash" {
			t.Errorf("password hash = %q, want newhash", u.PasswordHash)
		}
		if u.ResetCode != "" || u.ResetCodeExpiry != nil {
			t.Error("challenge fields not cleared")
		}
	})

	t.Run("single use", func(t *testing.T) {
		s := setup(t)
		s.SetResetChallenge(ctx, "u1", "123456", time.Now().Add(15*time.Minute))
		if err := s.ConsumeResetCode(ctx, "u1", "123456", "h1", time.Now()); err != nil {
			t.Fatalf("first consume: %v", err)
		}
		err := s.ConsumeResetCode(ctx, "u1", "123456", "h2", time.Now())
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("second consume err = %v, want ErrConflict", err)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		s := setup(t)
		s.SetResetChallenge(ctx, "u1", "123456", time.Now().Add(15*time.Minute))
		err := s.ConsumeResetCode(ctx, "u1", "654321", "h", time.Now())
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
		// 失败不得触碰任何字段
		u, _ := s.GetUserByID(ctx, "u1")
		if u.ResetCode != "123456" {
			t.Error("failed consume modified the challenge")
		}
	})

	t.Run("expired code", func(t *testing.T) {
		s := setup(t)
		s.SetResetChallenge(ctx, "u1", "123456", time.Now().Add(-time.Minute))
		err := s.ConsumeResetCode(ctx, "u1", "123456", "h", time.Now())
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expired err = %v, want ErrConflict", err)
		}
	})

	t.Run("no challenge issued", func(t *testing.T) {
		s := setup(t)
		err := s.ConsumeResetCode(ctx, "u1", "123456", "h", time.Now())
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})
}

func TestUpsertRating(t *testing.T) {
	ctx := context.Background()

	t.Run("same rater overwrites in place", func(t *testing.T) {
		s := NewContentStore()
		if err := s.CreateNote(ctx, newNote("n1", "owner")); err != nil {
			t.Fatalf("CreateNote: %v", err)
		}

		if err := s.UpsertRating(ctx, "n1", "rater", 3); err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		if err := s.UpsertRating(ctx, "n1", "rater", 5); err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		n, _ := s.GetNote(ctx, "n1")
		if len(n.Ratings) != 1 {
			t.Fatalf("ratings count = %d, want 1", len(n.Ratings))
		}
		if n.Ratings[0].Value != 5 {
			t.Errorf("rating value = %d, want 5", n.Ratings[0].Value)
		}
	})

	t.Run("distinct raters accumulate", func(t *testing.T) {
		s := NewContentStore()
		s.CreateNote(ctx, newNote("n1", "owner"))

		s.UpsertRating(ctx, "n1", "r1", 2)
		s.UpsertRating(ctx, "n1", "r2", 4)

		n, _ := s.GetNote(ctx, "n1")
		if len(n.Ratings) != 2 {
			t.Fatalf("ratings count = %d, want 2", len(n.Ratings))
		}
		summary := model.AverageRating(n.Ratings)
		if summary.Average != 3 || summary.Count != 2 {
			t.Errorf("summary = %+v, want average 3 count 2", summary)
		}
	})

	t.Run("missing note", func(t *testing.T) {
		s := NewContentStore()
		err := s.UpsertRating(ctx, "nope", "r1", 3)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	// 并发打分互不丢失：不同 rater 各留一条，同一 rater 只留一条
	t.Run("concurrent raters", func(t *testing.T) {
		s := NewContentStore()
		s.CreateNote(ctx, newNote("n1", "owner"))

		const raters = 20
		var wg sync.WaitGroup
		for i := 0; i < raters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				raterID := fmt.Sprintf("r%d", i)
				s.UpsertRating(ctx, "n1", raterID, i%5+1)
				s.UpsertRating(ctx, "n1", raterID, 5)
			}(i)
		}
		wg.Wait()

		n, _ := s.GetNote(ctx, "n1")
		if len(n.Ratings) != raters {
			t.Fatalf("ratings count = %d, want %d", len(n.Ratings), raters)
		}
		for _, r := range n.Ratings {
			if r.Value != 5 {
				t.Errorf("rater %s value = %d, want 5", r.UserID, r.Value)
			}
		}
	})
}

func TestUpdateNotePreservesOwnerAndRatings(t *testing.T) {
	s := NewContentStore()
	ctx := context.Background()

	s.CreateNote(ctx, newNote("n1", "owner"))
	s.UpsertRating(ctx, "n1", "r1", 4)

	// UpdateNote 只覆盖可编辑字段，owner 和 ratings 不受影响
	update := newNote("n1", "attacker")
	update.Title = "edited"
	if err := s.UpdateNote(ctx, update); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}

	n, _ := s.GetNote(ctx, "n1")
	if n.Title != "edited" {
		t.Errorf("title = %q, want edited", n.Title)
	}
	if n.OwnerID != "owner" {
		t.Errorf("owner = %q, ownership must not change on update", n.OwnerID)
	}
	if len(n.Ratings) != 1 {
		t.Errorf("ratings count = %d, update must not clobber ratings", len(n.Ratings))
	}
}

func TestSearchNotes(t *testing.T) {
	s := NewContentStore()
	ctx := context.Background()

	n1 := newNote("n1", "o")
	n1.Title = "Operating Systems"
	n1.Content = "scheduling and paging"
	n2 := newNote("n2", "o")
	n2.Title = "Databases"
	n2.Content = "B-trees and OPERATORS"
	s.CreateNote(ctx, n1)
	s.CreateNote(ctx, n2)

	tests := []struct {
		query string
		want  int
	}{
		{"oper", 2}, // 大小写不敏感，标题或正文命中
		{"OPER", 2},
		{"paging", 1},
		{"databases", 1},
		{"nothing-here", 0},
	}
	for _, tt := range tests {
		got, err := s.SearchNotes(ctx, tt.query)
		if err != nil {
			t.Fatalf("SearchNotes(%q): %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("SearchNotes(%q) = %d results, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestCommentLifecycle(t *testing.T) {
	s := NewContentStore()
	ctx := context.Background()
	now := time.Now()

	for i, text := range []string{"first", "second", "third"} {
		c := &model.Comment{
			ID:        fmt.Sprintf("c%d", i),
			NoteID:    "n1",
			UserID:    "u1",
			Content:   text,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateComment(ctx, c); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}
	s.CreateComment(ctx, &model.Comment{ID: "other", NoteID: "n2", UserID: "u1", Content: "x", CreatedAt: now})

	list, err := s.ListCommentsByNote(ctx, "n1")
	if err != nil {
		t.Fatalf("ListCommentsByNote: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("comments = %d, want 3", len(list))
	}
	// 按创建时间升序
	if list[0].Content != "first" || list[2].Content != "third" {
		t.Errorf("comments out of order: %s .. %s", list[0].Content, list[2].Content)
	}

	if err := s.UpdateComment(ctx, "c1", "edited"); err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	c, _ := s.GetComment(ctx, "c1")
	if c.Content != "edited" {
		t.Errorf("content = %q, want edited", c.Content)
	}

	if err := s.DeleteComment(ctx, "c1"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if err := s.DeleteComment(ctx, "c1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}
