package credstore

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNewRedisStore_RejectsMalformedURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisStore(context.Background(), "not a redis url", "diamond-plays:credentials:", time.Hour)
	if err == nil {
		t.Fatalf("expected error for malformed url")
	}
	if !strings.Contains(err.Error(), "parse redis url") {
		t.Fatalf("unexpected error: %v", err)
	}
}
