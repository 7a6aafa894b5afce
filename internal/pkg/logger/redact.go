package logger

import (
	"net/url"
	"strings"
)

const redacted = "***"

// 查询参数中不能落日志的键
var sensitiveQueryKeys = map[string]struct{}{
	"token":            {},
	"access_token":     {},
	"hub.verify_token": {},
}

// RedactQuery 返回解码后的查询串，敏感参数的值被替换
func RedactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, _ := url.ParseQuery(raw)
	for k := range values {
		if _, ok := sensitiveQueryKeys[strings.ToLower(k)]; ok {
			values[k] = []string{redacted}
		}
	}
	encoded := values.Encode()
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		return encoded
	}
	return decoded
}

// RedactPath 处理带查询串的路径，如 gin 访问日志中的 Path
func RedactPath(path string) string {
	i := strings.IndexByte(path, '?')
	if i < 0 {
		return path
	}
	return path[:i+1] + RedactQuery(path[i+1:])
}
