package payload

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// millisThreshold 小于该值视为秒级时间戳，否则为毫秒
const millisThreshold = 1e12

var calendarLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
}

var timestampPaths = []string{"timestamp", "messageTimestamp", "message_timestamp", "ts", "time", "date", "created_at", "createdAt"}

// ParseTimestamp 统一各种时间表示，无法解析时返回 now
func ParseTimestamp(v any, now time.Time) time.Time {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return fromEpoch(f, now)
		}
	case float64:
		return fromEpoch(t, now)
	case int:
		return fromEpoch(float64(t), now)
	case int64:
		return fromEpoch(float64(t), now)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return now
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(f, now)
		}
		for _, layout := range calendarLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC()
			}
		}
	case time.Time:
		return t.UTC()
	}
	return now
}

func fromEpoch(f float64, now time.Time) time.Time {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return now
	}
	if f < millisThreshold {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	return time.UnixMilli(int64(f)).UTC()
}

// timestampOf 依次查找消息与父级负载中的时间字段
func timestampOf(entry, parent Object, now time.Time) time.Time {
	for _, src := range []Object{entry, parent} {
		for _, p := range timestampPaths {
			if v := src.Get(p); v != nil {
				return ParseTimestamp(v, now)
			}
		}
	}
	return now
}
