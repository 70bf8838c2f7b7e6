package mongostore

import (
	"context"
	"regexp"
	"time"

	"noteshare/internal/model"
	"noteshare/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ContentStore 笔记操作
// ============================================================================

func (s *ContentStore) CreateNote(ctx context.Context, note *model.Note) error {
	return insertOne(ctx, s.col(ColNotes), note)
}

func (s *ContentStore) GetNote(ctx context.Context, id string) (*model.Note, error) {
	return findOne[model.Note](ctx, s.col(ColNotes), bson.D{{Key: "_id", Value: id}})
}

func (s *ContentStore) ListNotes(ctx context.Context) ([]*model.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Note](ctx, s.col(ColNotes), bson.D{}, opts)
}

// SearchNotes 大小写不敏感的子串匹配（标题或正文）
// 查询串先做正则转义，按字面子串匹配，没有分词和排序
func (s *ContentStore) SearchNotes(ctx context.Context, query string) ([]*model.Note, error) {
	pattern := regexp.QuoteMeta(query)
	re := bson.D{{Key: "$regex", Value: pattern}, {Key: "$options", Value: "i"}}
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "title", Value: re}},
		bson.D{{Key: "content", Value: re}},
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Note](ctx, s.col(ColNotes), filter, opts)
}

// UpdateNote 更新标题/正文/文件字段
// owner_id 与 ratings 不在更新范围内：前者创建后不可变，后者只经 UpsertRating 变更
func (s *ContentStore) UpdateNote(ctx context.Context, note *model.Note) error {
	return updateFields(ctx, s.col(ColNotes), note.ID, bson.D{
		{Key: "title", Value: note.Title},
		{Key: "content", Value: note.Content},
		{Key: "file_key", Value: note.FileKey},
		{Key: "file_type", Value: note.FileType},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *ContentStore) DeleteNote(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColNotes), id)
}

// UpsertRating 评分插入或覆盖，按 (note, rater) 保证至多一条
//
// 不做整文档读-改-写。两步原子匹配更新：
//  1. 匹配 {_id, ratings.user_id} 用位置操作符覆盖已有评分；
//  2. 未命中则匹配 {_id, ratings.user_id ≠ rater} 追加新评分；
//  3. 仍未命中说明笔记不存在，或同一评分人的首条评分在并发中先落库——
//     重试一次 $set，再失败则笔记确实不存在。
//
// 并发的不同评分人分别命中第 2 步的 $push，互不丢失。
func (s *ContentStore) UpsertRating(ctx context.Context, noteID, raterID string, value int) error {
	set := func() (bool, error) {
		res, err := s.col(ColNotes).UpdateOne(ctx,
			bson.D{
				{Key: "_id", Value: noteID},
				{Key: "ratings.user_id", Value: raterID},
			},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "ratings.$.value", Value: value},
			}}},
		)
		if err != nil {
			return false, wrapError(err)
		}
		return res.MatchedCount > 0, nil
	}

	matched, err := set()
	if err != nil {
		return err
	}
	if matched {
		return nil
	}

	// 该评分人还没有评分：追加，过滤条件排除已有同 rater 条目避免重复
	res, err := s.col(ColNotes).UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: noteID},
			{Key: "ratings.user_id", Value: bson.D{{Key: "$ne", Value: raterID}}},
		},
		bson.D{{Key: "$push", Value: bson.D{
			{Key: "ratings", Value: model.Rating{UserID: raterID, Value: value}},
		}}},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// 并发竞争：同 rater 的首条评分刚被写入，改走覆盖路径
	matched, err = set()
	if err != nil {
		return err
	}
	if !matched {
		return storage.ErrNotFound
	}
	return nil
}

// Compile-time interface check
var _ storage.ContentStore = (*ContentStore)(nil)
