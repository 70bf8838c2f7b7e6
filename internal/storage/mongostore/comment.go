package mongostore

import (
	"context"
	"time"

	"noteshare/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ContentStore 评论操作
// ============================================================================

func (s *ContentStore) CreateComment(ctx context.Context, comment *model.Comment) error {
	return insertOne(ctx, s.col(ColComments), comment)
}

func (s *ContentStore) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	return findOne[model.Comment](ctx, s.col(ColComments), bson.D{{Key: "_id", Value: id}})
}

func (s *ContentStore) ListCommentsByNote(ctx context.Context, noteID string) ([]*model.Comment, error) {
	filter := bson.D{{Key: "note_id", Value: noteID}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return findMany[model.Comment](ctx, s.col(ColComments), filter, opts)
}

func (s *ContentStore) UpdateComment(ctx context.Context, id, content string) error {
	return updateFields(ctx, s.col(ColComments), id, bson.D{
		{Key: "content", Value: content},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *ContentStore) DeleteComment(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColComments), id)
}
