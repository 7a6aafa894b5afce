package mongo

import (
	"Courier/internal/model"
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MessageCollection = "messages"

var (
	ErrDuplicateIdentifier = errors.New("duplicate message identifier")
	ErrNotFound            = errors.New("message not found")
)

// Flag 可由用户直接修改的软状态
type Flag string

const (
	FlagDeleted Flag = "is_deleted"
	FlagStarred Flag = "is_starred"
)

type MessageRepo interface {
	Insert(ctx context.Context, msg *model.Message) error
	FindByIdentifiers(ctx context.Context, ids model.Identifiers) (*model.Message, error)
	FindByID(ctx context.Context, id string) (*model.Message, error)
	FindMany(ctx context.Context, filter MessageFilter, opts FindOptions) ([]*model.Message, error)
	AdvanceStatus(ctx context.Context, id primitive.ObjectID, next model.Status, now time.Time) (bool, error)
	CountByConversation(ctx context.Context, key string) (int64, error)
	SetFlag(ctx context.Context, id string, flag Flag, value bool) (*model.Message, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection(MessageCollection),
	}
}

// EnsureMessageIndexes 建立查询索引与标识唯一索引
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	col := db.Collection(MessageCollection)
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "conversation_key", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "primary_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"primary_id": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "secondary_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"secondary_id": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "direction", Value: 1}, {Key: "status", Value: 1}, {Key: "timestamp", Value: 1}},
		},
	}
	_, err := col.Indexes().CreateMany(ctx, models)
	return pkgerrors.Wrap(err, "create message indexes")
}

// Insert 插入消息，标识冲突时返回 ErrDuplicateIdentifier
func (s *messageRepoImpl) Insert(ctx context.Context, msg *model.Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, msg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateIdentifier
		}
		return pkgerrors.Wrap(err, "insert message")
	}
	return nil
}

// FindByIdentifiers 任一标识命中即返回，没有标识或未命中返回 nil
func (s *messageRepoImpl) FindByIdentifiers(ctx context.Context, ids model.Identifiers) (*model.Message, error) {
	if ids.IsEmpty() {
		return nil, nil
	}
	filter := MessageFilter{Match: &ids, IncludeDeleted: true}.ToBSON()

	var msg model.Message
	err := s.col.FindOne(ctx, filter).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find message by identifiers")
	}
	return &msg, nil
}

// FindByID 按记录句柄查询
func (s *messageRepoImpl) FindByID(ctx context.Context, id string) (*model.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var msg model.Message
	if err = s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "find message by id")
	}
	return &msg, nil
}

// FindMany 按时间排序查询，Newest 为 true 时倒序
func (s *messageRepoImpl) FindMany(ctx context.Context, filter MessageFilter, opts FindOptions) ([]*model.Message, error) {
	findOptions := opts.toMongo()
	cursor, err := s.col.Find(ctx, filter.ToBSON(), findOptions)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find messages")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	messages := make([]*model.Message, 0)
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, pkgerrors.Wrap(err, "decode messages")
	}
	return messages, nil
}

// AdvanceStatus 条件更新：仅当当前状态允许前进到 next 时写入，并补齐首次送达/已读时间
func (s *messageRepoImpl) AdvanceStatus(ctx context.Context, id primitive.ObjectID, next model.Status, now time.Time) (bool, error) {
	preds := model.Predecessors(next)
	if len(preds) == 0 {
		return false, nil
	}

	set := bson.D{{Key: "status", Value: next}}
	switch next {
	case model.StatusDelivered:
		set = append(set, bson.E{Key: "delivered_at", Value: bson.M{"$ifNull": bson.A{"$delivered_at", now}}})
	case model.StatusRead:
		set = append(set, bson.E{Key: "read_at", Value: bson.M{"$ifNull": bson.A{"$read_at", now}}})
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": preds}}
	update := mongo.Pipeline{{{Key: "$set", Value: set}}}

	result, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, pkgerrors.Wrap(err, "advance message status")
	}
	return result.ModifiedCount > 0, nil
}

func (s *messageRepoImpl) CountByConversation(ctx context.Context, key string) (int64, error) {
	filter := MessageFilter{ConversationKey: key}.ToBSON()
	count, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "count messages")
	}
	return count, nil
}

// SetFlag 修改软状态并返回更新后的消息
func (s *messageRepoImpl) SetFlag(ctx context.Context, id string, flag Flag, value bool) (*model.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var msg model.Message
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{string(flag): value}}, opts).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "set message flag")
	}
	return &msg, nil
}
