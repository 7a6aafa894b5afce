package logger

import (
	"strings"
	"testing"
)

func TestRedactQuery(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"plain", "page=2&q=hello%20world", "page=2&q=hello world"},
		{"token", "token=s3cret&page=1", "page=1&token=***"},
		{"verify token", "hub.mode=subscribe&hub.verify_token=abc", "hub.mode=subscribe&hub.verify_token=***"},
		{"case insensitive", "Token=abc", "Token=***"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := RedactQuery(c.raw); got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestRedactPath(t *testing.T) {
	got := RedactPath("/api/webhook?token=s3cret")
	if strings.Contains(got, "s3cret") || !strings.HasPrefix(got, "/api/webhook?") {
		t.Errorf("got %q", got)
	}
	if got := RedactPath("/api/ping"); got != "/api/ping" {
		t.Errorf("got %q", got)
	}
}
