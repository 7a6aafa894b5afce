package mongo

import (
	"Courier/internal/model"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageFilter 消息查询条件，各字段为 AND 关系，Match 内部为 OR。
// IDPrefix 按 primary_id 前缀过滤，本地发出的消息带固定前缀
type MessageFilter struct {
	ConversationKey string
	Match           *model.Identifiers
	Direction       model.Direction
	Statuses        []model.Status
	IncludeDeleted  bool
	Before          *time.Time
	IDPrefix        string
	DeliveredBefore *time.Time
}

// FindOptions 排序与分页；SkipRaw 不加载原始负载
type FindOptions struct {
	Newest  bool
	Skip    int64
	Limit   int64
	SkipRaw bool
}

func (o FindOptions) toMongo() *options.FindOptions {
	order := 1
	if o.Newest {
		order = -1
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: order}, {Key: "_id", Value: order}})
	if o.Skip > 0 {
		findOptions.SetSkip(o.Skip)
	}
	if o.Limit > 0 {
		findOptions.SetLimit(o.Limit)
	}
	if o.SkipRaw {
		findOptions.SetProjection(bson.M{"raw_original": 0})
	}
	return findOptions
}

// ToBSON 转换为 MongoDB 查询
func (f MessageFilter) ToBSON() bson.M {
	q := bson.M{}
	if f.ConversationKey != "" {
		q["conversation_key"] = f.ConversationKey
	}
	if f.Match != nil {
		conds := f.Match.Conditions()
		or := make(bson.A, 0, len(conds))
		for _, c := range conds {
			or = append(or, bson.M{c.Field: c.Value})
		}
		if len(or) == 0 {
			// 没有任何标识时不匹配任何消息
			q["_id"] = bson.M{"$exists": false}
		} else {
			q["$or"] = or
		}
	}
	if f.Direction != "" {
		q["direction"] = f.Direction
	}
	if len(f.Statuses) > 0 {
		q["status"] = bson.M{"$in": f.Statuses}
	}
	if !f.IncludeDeleted {
		q["is_deleted"] = bson.M{"$ne": true}
	}
	if f.Before != nil {
		q["timestamp"] = bson.M{"$lt": *f.Before}
	}
	if f.IDPrefix != "" {
		q["primary_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.IDPrefix)}
	}
	if f.DeliveredBefore != nil {
		q["delivered_at"] = bson.M{"$lt": *f.DeliveredBefore}
	}
	return q
}

// Matches 与 ToBSON 语义一致的内存判断
func (f MessageFilter) Matches(m *model.Message) bool {
	if f.ConversationKey != "" && m.ConversationKey != f.ConversationKey {
		return false
	}
	if f.Match != nil && !f.Match.MatchedBy(m) {
		return false
	}
	if f.Direction != "" && m.Direction != f.Direction {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if m.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.IncludeDeleted && m.IsDeleted {
		return false
	}
	if f.Before != nil && !m.Timestamp.Before(*f.Before) {
		return false
	}
	if f.IDPrefix != "" && !strings.HasPrefix(m.PrimaryID, f.IDPrefix) {
		return false
	}
	if f.DeliveredBefore != nil && (m.DeliveredAt == nil || !m.DeliveredAt.Before(*f.DeliveredBefore)) {
		return false
	}
	return true
}
