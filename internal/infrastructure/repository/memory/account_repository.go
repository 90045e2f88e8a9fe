package memory

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/diamond-plays/internal/usecase"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = crerr.Mark(crerr.New("invalid email or password"), usecase.ErrUnauthorized)

type account struct {
	userID       string
	passwordHash [sha256.Size]byte
}

// AccountRepository keeps demo accounts and the bearer tokens issued to them.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]account
	tokens   map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
	}
}

func (r *AccountRepository) AddAccount(_ context.Context, userID, email, password string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[normalizeEmail(email)] = account{
		userID:       userID,
		passwordHash: sha256.Sum256([]byte(password)),
	}
}

// AddToken registers a fixed token for userID, used for seeded sessions.
func (r *AccountRepository) AddToken(_ context.Context, token, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = userID
}

// Authenticate checks the password and issues a new opaque token.
func (r *AccountRepository) Authenticate(_ context.Context, email, password string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[normalizeEmail(email)]
	hash := sha256.Sum256([]byte(password))
	if !ok || subtle.ConstantTimeCompare(acc.passwordHash[:], hash[:]) != 1 {
		return "", ErrInvalidCredentials
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", crerr.Wrap(err, "generate token")
	}
	token := hex.EncodeToString(buf)
	r.tokens[token] = acc.userID
	return token, nil
}

// UserForToken resolves a bearer token to its user id.
func (r *AccountRepository) UserForToken(_ context.Context, token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.tokens[token]
	return userID, ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
