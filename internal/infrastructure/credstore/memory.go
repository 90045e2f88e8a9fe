package credstore

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/diamond-plays/internal/platform/cache"
)

// MemoryStore keeps credentials in process memory. A positive ttl expires them,
// which mirrors a session-bound keychain.
type MemoryStore struct {
	entries *cache.Store[string]
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: cache.NewStore[string](ttl)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := s.entries.Get(ctx, strings.TrimSpace(key))
	if !ok || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.entries.Set(ctx, strings.TrimSpace(key), value)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.entries.Delete(ctx, strings.TrimSpace(key))
	return nil
}
