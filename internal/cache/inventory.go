package cache

import (
	"context"
	"fmt"
	"time"
)

// Idea payloads embed the viewer's liked flag, so only viewer-independent
// data goes through the cache.
const (
	SubjectsKey   = "subjects:all"
	UserKeyPrefix = "user:%d"
)

const (
	SubjectsTTL = 10 * time.Minute
	UserTTL     = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateSubjects(ctx context.Context) {
	Invalidate(ctx, SubjectsKey)
}
