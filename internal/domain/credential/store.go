package credential

import "context"

// TokenKey is the key the bearer token is stored under.
const TokenKey = "jwtToken"

// Store reads and writes credentials by key. Get reports a missing key with ok=false
// and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
