// Package routes wires the HTTP surface: OAuth connect flow, cached activity
// and recommendation endpoints, and the cache admin surface.
package routes

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/sportyhq/sporty/internal/ai"
	"github.com/sportyhq/sporty/internal/cache"
	"github.com/sportyhq/sporty/internal/config"
	"github.com/sportyhq/sporty/internal/strava"
	"github.com/sportyhq/sporty/internal/token"
)

type Server struct {
	Router *chi.Mux
	Sess   *scs.SessionManager
	Cache  *cache.Service
	Tokens *token.Service
	Strava *strava.Client
	AI     ai.Provider
	Cfg    config.Config
	Log    zerolog.Logger
	Asynq  *asynq.Client // nil disables sync enqueue
	OAuth  *oauth2.Config
}

type ServerOptions struct {
	Sess   *scs.SessionManager
	Cache  *cache.Service
	Tokens *token.Service
	Strava *strava.Client
	AI     ai.Provider
	Cfg    config.Config
	Log    zerolog.Logger
	Asynq  *asynq.Client
	// OAuth overrides the config-derived OAuth client; tests point it at a
	// local token endpoint.
	OAuth *oauth2.Config
}

// StravaEndpoint is the production OAuth endpoint.
var StravaEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.strava.com/oauth/authorize",
	TokenURL: "https://www.strava.com/oauth/token",
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{
		Router: r,
		Sess:   opts.Sess,
		Cache:  opts.Cache,
		Tokens: opts.Tokens,
		Strava: opts.Strava,
		AI:     opts.AI,
		Cfg:    opts.Cfg,
		Log:    opts.Log,
		Asynq:  opts.Asynq,
	}
	s.OAuth = opts.OAuth
	if s.OAuth == nil {
		s.OAuth = &oauth2.Config{
			ClientID:     opts.Cfg.Strava.ClientID,
			ClientSecret: opts.Cfg.Strava.ClientSecret,
			RedirectURL:  opts.Cfg.Strava.RedirectURL,
			Scopes:       []string{"read", "activity:read_all"},
			Endpoint:     StravaEndpoint,
		}
	}

	if s.Sess != nil {
		r.Use(s.Sess.LoadAndSave)
	}

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/auth/strava", s.handleAuthStrava)
	r.Get("/exchange_token", s.handleExchangeToken)
	r.Get("/token_status", s.handleTokenStatus)
	r.Get("/storage_info", s.handleStorageInfo)
	r.Get("/activities", s.handleActivities)
	r.Get("/recommendations", s.handleRecommendations)
	r.Get("/admin/cache/stats", s.handleCacheStats)
	r.Delete("/admin/cache", s.handleCacheClear)

	return s
}

// ---- OAuth state signing (HMAC over nonce|exp)

func (s *Server) signState(nonce string, exp time.Time) string {
	msg := nonce + "|" + strconv.FormatInt(exp.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(s.Cfg.StateSecret))
	mac.Write([]byte(msg))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	pl := base64.RawURLEncoding.EncodeToString([]byte(msg))
	return pl + "." + sig
}

func (s *Server) verifyState(state string) bool {
	parts := strings.SplitN(state, ".", 2)
	if len(parts) != 2 {
		return false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.Cfg.StateSecret))
	mac.Write(payload)
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return false
	}

	fields := strings.SplitN(string(payload), "|", 2)
	if len(fields) != 2 {
		return false
	}
	expUnix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return false
	}
	return !time.Now().After(time.Unix(expUnix, 0))
}
