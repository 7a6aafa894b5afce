package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	FieldPrimaryID   = "primary_id"
	FieldSecondaryID = "secondary_id"
	FieldRecordID    = "_id"
)

// Identifiers 一条消息可能携带的全部标识
// Primary/Secondary/Transport 来自负载，Record 为存储层句柄（仅状态回执可能携带）
type Identifiers struct {
	Primary   string
	Secondary string
	Transport string
	Record    string
}

// MatchCondition 单个匹配条件
type MatchCondition struct {
	Field string
	Value any
}

func (i Identifiers) IsEmpty() bool {
	return i.Primary == "" && i.Secondary == "" && i.Transport == "" && i.Record == ""
}

// Values 去重后的非空标识值，保持 Primary、Secondary、Transport、Record 的顺序
func (i Identifiers) Values() []string {
	var res []string
	seen := make(map[string]struct{}, 4)
	for _, v := range []string{i.Primary, i.Secondary, i.Transport, i.Record} {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		res = append(res, v)
	}
	return res
}

// Conditions 有序的匹配条件
// 每个标识值同时匹配 primary_id 与 secondary_id 两个命名空间，
// 形如 ObjectID 的值额外匹配记录句柄
func (i Identifiers) Conditions() []MatchCondition {
	var conds []MatchCondition
	for _, v := range i.Values() {
		conds = append(conds,
			MatchCondition{Field: FieldPrimaryID, Value: v},
			MatchCondition{Field: FieldSecondaryID, Value: v},
		)
	}
	if i.Record != "" {
		if oid, err := primitive.ObjectIDFromHex(i.Record); err == nil {
			conds = append(conds, MatchCondition{Field: FieldRecordID, Value: oid})
		}
	}
	return conds
}

// MatchedBy 判断消息是否命中任一条件
func (i Identifiers) MatchedBy(m *Message) bool {
	for _, c := range i.Conditions() {
		switch c.Field {
		case FieldPrimaryID:
			if m.PrimaryID != "" && m.PrimaryID == c.Value {
				return true
			}
		case FieldSecondaryID:
			if m.SecondaryID != "" && m.SecondaryID == c.Value {
				return true
			}
		case FieldRecordID:
			if m.ID == c.Value {
				return true
			}
		}
	}
	return false
}
