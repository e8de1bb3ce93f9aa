// Package token manages the Strava OAuth token set: persistence, expiry
// checks, and refresh.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/sportyhq/sporty/internal/db"
)

// ErrNotAuthenticated is returned when no token set is stored.
var ErrNotAuthenticated = errors.New("not authenticated with strava")

// refreshSkew refreshes tokens slightly before their actual expiry so an
// upstream call never races the deadline.
const refreshSkew = 2 * time.Minute

// Tokens is a stored OAuth token set. ExpiresAt is unix seconds.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	AthleteID    int64
}

// Expired reports whether the access token is past its expiry.
func (t Tokens) Expired(now time.Time) bool {
	if t.ExpiresAt == 0 {
		return true
	}
	return now.Unix() > t.ExpiresAt
}

// TimeUntilExpiry returns seconds until expiry, clamped at zero.
func (t Tokens) TimeUntilExpiry(now time.Time) int64 {
	if t.ExpiresAt == 0 {
		return 0
	}
	if d := t.ExpiresAt - now.Unix(); d > 0 {
		return d
	}
	return 0
}

// Store persists a single token set.
type Store interface {
	Save(ctx context.Context, t Tokens) error
	// Load returns nil when nothing is stored.
	Load(ctx context.Context) (*Tokens, error)
	Delete(ctx context.Context) error
}

// MemoryStore keeps tokens in process memory; they are lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	tokens *Tokens
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Save(_ context.Context, t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = &t
	return nil
}

func (s *MemoryStore) Load(context.Context) (*Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil, nil
	}
	t := *s.tokens
	return &t, nil
}

func (s *MemoryStore) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	return nil
}

// DBStore persists tokens in Postgres.
type DBStore struct {
	q *db.Queries
}

func NewDBStore(q *db.Queries) *DBStore { return &DBStore{q: q} }

func (s *DBStore) Save(ctx context.Context, t Tokens) error {
	return s.q.UpsertStravaTokens(ctx, db.StravaTokens{
		AthleteID:    t.AthleteID,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.ExpiresAt,
	})
}

func (s *DBStore) Load(ctx context.Context) (*Tokens, error) {
	row, err := s.q.GetStravaTokens(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    row.ExpiresAt,
		AthleteID:    row.AthleteID,
	}, nil
}

func (s *DBStore) Delete(ctx context.Context) error {
	return s.q.DeleteStravaTokens(ctx)
}

// Service owns the token lifecycle. AccessToken transparently refreshes a
// stale token through the OAuth endpoint and persists the rotated pair.
type Service struct {
	store Store
	oauth *oauth2.Config
	log   zerolog.Logger
	now   func() time.Time
}

// NewService wires a store with the OAuth application config.
func NewService(store Store, oauth *oauth2.Config, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		oauth: oauth,
		log:   log.With().Str("component", "token").Logger(),
		now:   time.Now,
	}
}

// Save stores a freshly exchanged token set.
func (s *Service) Save(ctx context.Context, access, refresh string, expiresAt, athleteID int64) error {
	return s.store.Save(ctx, Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		AthleteID:    athleteID,
	})
}

// Status returns the stored token set regardless of expiry, or nil.
func (s *Service) Status(ctx context.Context) (*Tokens, error) {
	return s.store.Load(ctx)
}

// Clear removes the stored token set.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Delete(ctx)
}

// AccessToken returns a usable access token, refreshing and persisting a new
// pair when the stored one is within the refresh skew of expiry.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	t, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", ErrNotAuthenticated
	}

	expiry := time.Unix(t.ExpiresAt, 0)
	if expiry.Sub(s.now()) >= refreshSkew {
		return t.AccessToken, nil
	}

	s.log.Info().Int64("athlete_id", t.AthleteID).Msg("access token stale, refreshing")
	src := s.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       expiry,
	})
	fresh, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("refresh strava token: %w", err)
	}

	refresh := fresh.RefreshToken
	if refresh == "" {
		refresh = t.RefreshToken
	}
	if err := s.store.Save(ctx, Tokens{
		AccessToken:  fresh.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    fresh.Expiry.Unix(),
		AthleteID:    t.AthleteID,
	}); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}
	return fresh.AccessToken, nil
}
