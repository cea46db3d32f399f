package dto

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTemplateRequired  = errors.New("template_id required")
	ErrPushTokenRequired = errors.New("push_token required")
	ErrBadSinceTag       = errors.New("bad since tag")
)

// Validate проверяет инварианты IssuePassRequest
func (r IssuePassRequest) Validate() error {
	if strings.TrimSpace(r.TemplateID) == "" {
		return ErrTemplateRequired
	}
	return nil
}

// Validate проверяет инварианты RegisterRequest
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.PushToken) == "" {
		return ErrPushTokenRequired
	}
	return nil
}

// ParseSinceTag — тег опроса: unix-секунды последнего виденного lastModified.
// Пустой тег означает «с самого начала».
func ParseSinceTag(tag string) (time.Time, error) {
	if tag == "" {
		return time.Time{}, nil
	}
	sec, err := strconv.ParseInt(tag, 10, 64)
	if err != nil || sec < 0 {
		return time.Time{}, ErrBadSinceTag
	}
	return time.Unix(sec, 0).UTC(), nil
}

// FormatSinceTag — обратная операция к ParseSinceTag
func FormatSinceTag(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}
