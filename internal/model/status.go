package model

import "strings"

// Status 投递状态，pending < sent < delivered < read，failed 为终态
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

var statusAliases = map[string]Status{
	"pending":      StatusPending,
	"queued":       StatusPending,
	"sent":         StatusSent,
	"server_ack":   StatusSent,
	"delivered":    StatusDelivered,
	"delivery_ack": StatusDelivered,
	"read":         StatusRead,
	"read_ack":     StatusRead,
	"seen":         StatusRead,
	"played":       StatusRead,
	"failed":       StatusFailed,
	"error":        StatusFailed,
}

// ParseStatus 解析状态字符串，大小写不敏感
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusFailed
}

// CanAdvanceTo 状态只能前进；failed 只能从尚未送达的状态进入，且不可离开
func (s Status) CanAdvanceTo(next Status) bool {
	if s == StatusFailed || !next.Valid() {
		return false
	}
	if next == StatusFailed {
		return s == StatusPending || s == StatusSent
	}
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	return statusRank[next] > cur
}

// Predecessors 所有允许前进到 next 的状态
func Predecessors(next Status) []Status {
	var res []Status
	for _, s := range []Status{StatusPending, StatusSent, StatusDelivered, StatusRead} {
		if s.CanAdvanceTo(next) {
			res = append(res, s)
		}
	}
	return res
}
