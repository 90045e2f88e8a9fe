package usecase

import crerr "github.com/cockroachdb/errors"

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrUnauthorized          = crerr.New("unauthorized")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")

	// ErrPlayerNotCached means no loaded roster holds the requested game player.
	ErrPlayerNotCached = crerr.New("game player not found in cache")
	// ErrInvalidIdentifier means a cached game or team id is not a 24 hex id.
	ErrInvalidIdentifier = crerr.New("invalid game or team identifier")
	// ErrSelectionInconsistent means the server reported a conflict but listed no matching selection.
	ErrSelectionInconsistent = crerr.New("selection conflict without matching record")
)

// GamesLoadError is the user facing message set when the games fetch fails.
const GamesLoadError = "Failed to load games"
