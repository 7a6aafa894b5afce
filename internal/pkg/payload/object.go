package payload

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Object 一个 JSON 对象，字段访问均容忍缺失与类型不符
type Object map[string]any

// Decode 解析原始负载，数字保留为 json.Number 以免丢失精度
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeValue(v), nil
}

// normalizeValue 将 map[string]any 递归转换为 Object
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		o := make(Object, len(t))
		for k, val := range t {
			o[k] = normalizeValue(val)
		}
		return o
	case Object:
		for k, val := range t {
			t[k] = normalizeValue(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	default:
		return v
	}
}

// AsObject 尝试把任意值视为对象
func AsObject(v any) (Object, bool) {
	switch t := v.(type) {
	case Object:
		return t, true
	case map[string]any:
		return Object(t), true
	default:
		return nil, false
	}
}

// Get 按点分路径取值，数组段使用下标，如 "contacts.0.profile.name"
func (o Object) Get(path string) any {
	if o == nil {
		return nil
	}
	var cur any = o
	for _, seg := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case Object:
			cur = t[seg]
		case map[string]any:
			cur = t[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(t) {
				return nil
			}
			cur = t[idx]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Has 字段存在且非 null
func (o Object) Has(path string) bool {
	return o.Get(path) != nil
}

// Str 返回第一个非空的字符串值，数字会被格式化为字符串
func (o Object) Str(paths ...string) string {
	for _, p := range paths {
		if s := scalarString(o.Get(p)); s != "" {
			return s
		}
	}
	return ""
}

// Obj 返回第一个存在的对象字段
func (o Object) Obj(paths ...string) Object {
	for _, p := range paths {
		if obj, ok := AsObject(o.Get(p)); ok {
			return obj
		}
	}
	return nil
}

// Arr 返回第一个存在的数组字段
func (o Object) Arr(paths ...string) []any {
	for _, p := range paths {
		if arr, ok := o.Get(p).([]any); ok {
			return arr
		}
	}
	return nil
}

// Bool 任一字段为 true 或 "true" 即返回 true
func (o Object) Bool(paths ...string) bool {
	for _, p := range paths {
		switch t := o.Get(p).(type) {
		case bool:
			if t {
				return true
			}
		case string:
			if strings.EqualFold(t, "true") {
				return true
			}
		}
	}
	return false
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// Snapshot 序列化为 JSON 字符串，用于留存原始负载
func Snapshot(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncateRunes 按字符截断
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
