package payload

import (
	"Courier/internal/model"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var statusPaths = []string{"status", "update.status", "ack", "state", "receipt"}

// ackCodes 网关使用的数字回执码
var ackCodes = map[int]model.Status{
	-1: model.StatusFailed,
	0:  model.StatusPending,
	1:  model.StatusSent,
	2:  model.StatusDelivered,
	3:  model.StatusRead,
	4:  model.StatusRead,
}

// StatusUpdate 一条状态回执
type StatusUpdate struct {
	IDs    model.Identifiers
	Status model.Status
	// Echo 回执中携带的原始标识
	Echo      string
	Timestamp time.Time
}

// ExtractStatusUpdate 解析状态回执；标识缺失返回 ErrNoIdentifier，状态无法识别返回 ErrInvalidStatus
func ExtractStatusUpdate(entry, parent Object, now time.Time) (StatusUpdate, error) {
	ids := ExtractIdentifiers(entry)
	if ids.IsEmpty() && parent != nil {
		ids = ExtractIdentifiers(parent)
	}
	if ids.IsEmpty() {
		return StatusUpdate{}, ErrNoIdentifier
	}
	if ids.Record == "" {
		// 形如记录句柄的标识同时按 _id 匹配
		for _, v := range ids.Values() {
			if primitive.IsValidObjectID(v) {
				ids.Record = v
				break
			}
		}
	}

	raw := entry.Str(statusPaths...)
	if raw == "" {
		raw = parent.Str(statusPaths...)
	}
	st, ok := parseStatusValue(raw)
	if !ok {
		return StatusUpdate{}, ErrInvalidStatus
	}

	return StatusUpdate{
		IDs:       ids,
		Status:    st,
		Echo:      ids.Values()[0],
		Timestamp: timestampOf(entry, parent, now),
	}, nil
}

func parseStatusValue(raw string) (model.Status, bool) {
	if st, ok := model.ParseStatus(raw); ok {
		return st, true
	}
	if n, err := strconv.Atoi(raw); err == nil {
		st, ok := ackCodes[n]
		return st, ok
	}
	return "", false
}
