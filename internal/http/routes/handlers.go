package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/oauth2"

	"github.com/sportyhq/sporty/internal/ai"
	"github.com/sportyhq/sporty/internal/jobs"
	"github.com/sportyhq/sporty/internal/stats"
	"github.com/sportyhq/sporty/internal/token"
)

const (
	nsActivities      = "activities"
	nsRecommendations = "recommendations"

	activitiesPerPage = 50
	stateTTL          = 30 * time.Minute
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"message": "Sporty API is running!",
		"version": "1.0.0",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAuthStrava(w http.ResponseWriter, _ *http.Request) {
	if s.Cfg.Strava.ClientID == "" {
		s.fail(w, http.StatusInternalServerError, "configuration_error", "Strava client credentials are not configured")
		return
	}
	state := s.signState(uuid.NewString(), time.Now().Add(stateTTL))
	url := s.OAuth.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
	s.success(w, map[string]string{
		"authorization_url": url,
		"state":             state,
	}, "Redirect the athlete to the authorization URL")
}

func (s *Server) handleExchangeToken(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if denied := q.Get("error"); denied != "" {
		s.fail(w, http.StatusBadRequest, "authorization_denied", "Strava authorization was denied: "+denied)
		return
	}
	code := q.Get("code")
	if code == "" {
		s.fail(w, http.StatusBadRequest, "missing_code", "Missing authorization code")
		return
	}
	if state := q.Get("state"); state != "" && !s.verifyState(state) {
		s.fail(w, http.StatusBadRequest, "invalid_state", "State parameter is invalid or expired")
		return
	}

	tok, err := s.OAuth.Exchange(r.Context(), code)
	if err != nil {
		s.Log.Error().Err(err).Msg("token exchange failed")
		s.fail(w, http.StatusBadGateway, "token_exchange_failed", "Could not exchange authorization code")
		return
	}

	// Strava returns the athlete object alongside the token.
	var athleteID int64
	if athlete, ok := tok.Extra("athlete").(map[string]any); ok {
		if id, ok := athlete["id"].(float64); ok {
			athleteID = int64(id)
		}
	}

	if err := s.Tokens.Save(r.Context(), tok.AccessToken, tok.RefreshToken, tok.Expiry.Unix(), athleteID); err != nil {
		s.Log.Error().Err(err).Msg("persist tokens failed")
		s.fail(w, http.StatusInternalServerError, "storage_error", "Could not store Strava tokens")
		return
	}
	if s.Sess != nil {
		s.Sess.Put(r.Context(), "athlete_id", athleteID)
	}

	if s.Asynq != nil {
		payload, _ := json.Marshal(jobs.SyncActivitiesPayload{AthleteID: athleteID})
		if _, err := s.Asynq.Enqueue(asynq.NewTask(jobs.TaskSyncActivities, payload), asynq.MaxRetry(3)); err != nil {
			s.Log.Warn().Err(err).Msg("enqueue activity sync failed")
		}
	}

	s.Log.Info().Int64("athlete_id", athleteID).Msg("strava account connected")
	s.success(w, map[string]any{
		"status":     "connected",
		"athlete_id": athleteID,
	}, "Strava account connected successfully")
}

func (s *Server) handleTokenStatus(w http.ResponseWriter, r *http.Request) {
	t, err := s.Tokens.Status(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "storage_error", "Could not load token status")
		return
	}
	if t == nil {
		s.success(w, map[string]any{"authenticated": false}, "No Strava tokens stored")
		return
	}
	now := time.Now()
	s.success(w, map[string]any{
		"authenticated":      true,
		"athlete_id":         t.AthleteID,
		"expires_at":         t.ExpiresAt,
		"expires_in_seconds": t.TimeUntilExpiry(now),
		"expired":            t.Expired(now),
	}, "Token status retrieved")
}

func (s *Server) handleStorageInfo(w http.ResponseWriter, r *http.Request) {
	backend := "memory"
	if s.Cfg.HasDatabase() {
		backend = "postgres"
	}
	t, err := s.Tokens.Status(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "storage_error", "Could not inspect token storage")
		return
	}
	s.success(w, map[string]any{
		"token_storage": backend,
		"authenticated": t != nil,
	}, "Storage info retrieved")
}

// apiError carries a handler failure up to the envelope writer.
type apiError struct {
	status int
	code   string
	msg    string
}

// performanceActivities returns the athlete's recent activities reduced to
// performance stats, serving from the activity cache when possible. The
// Strava API is only hit on a miss.
func (s *Server) performanceActivities(ctx context.Context) ([]stats.ActivityStats, int64, *apiError) {
	st, err := s.Tokens.Status(ctx)
	if err != nil {
		return nil, 0, &apiError{http.StatusInternalServerError, "storage_error", "Could not load Strava tokens"}
	}
	if st == nil {
		return nil, 0, &apiError{http.StatusUnauthorized, "not_authenticated", "Connect your Strava account first"}
	}

	payload := map[string]any{"athlete_id": st.AthleteID, "per_page": activitiesPerPage}
	if v, ok := s.Cache.Get(ctx, nsActivities, payload); ok {
		var cached []stats.ActivityStats
		if err := reencode(v, &cached); err == nil {
			return cached, st.AthleteID, nil
		}
		s.Log.Warn().Msg("discarding undecodable cached activities")
	}

	access, err := s.Tokens.AccessToken(ctx)
	if err != nil {
		if errors.Is(err, token.ErrNotAuthenticated) {
			return nil, 0, &apiError{http.StatusUnauthorized, "not_authenticated", "Connect your Strava account first"}
		}
		s.Log.Error().Err(err).Msg("token refresh failed")
		return nil, 0, &apiError{http.StatusBadGateway, "token_refresh_failed", "Could not refresh the Strava access token"}
	}

	raw, err := s.Strava.Activities(ctx, access, 1, activitiesPerPage)
	if err != nil {
		s.Log.Error().Err(err).Msg("strava fetch failed")
		return nil, 0, &apiError{http.StatusBadGateway, "strava_error", "Could not fetch activities from Strava"}
	}

	perf := stats.ExtractPerformance(raw)
	s.Cache.Set(ctx, nsActivities, payload, perf, s.Cfg.ActivityCacheTTL())
	return perf, st.AthleteID, nil
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	perf, _, apiErr := s.performanceActivities(r.Context())
	if apiErr != nil {
		s.fail(w, apiErr.status, apiErr.code, apiErr.msg)
		return
	}
	s.success(w, map[string]any{
		"total_activities":       len(perf),
		"performance_activities": len(perf),
		"activities":             perf,
	}, "Activities retrieved successfully")
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	perf, athleteID, apiErr := s.performanceActivities(ctx)
	if apiErr != nil {
		s.fail(w, apiErr.status, apiErr.code, apiErr.msg)
		return
	}
	if len(perf) == 0 {
		s.fail(w, http.StatusNotFound, "no_performance_data", "No activities with performance data found")
		return
	}

	payload := map[string]any{"athlete_id": athleteID, "activities": perf}
	if v, ok := s.Cache.Get(ctx, nsRecommendations, payload); ok {
		var cached ai.Result
		if err := reencode(v, &cached); err == nil {
			s.success(w, cached, "Recommendations retrieved successfully")
			return
		}
		s.Log.Warn().Msg("discarding undecodable cached recommendations")
	}

	req := ai.Request{
		Summary:    stats.Summary(perf),
		Metrics:    stats.Aggregate(perf),
		Activities: perf,
		Context:    r.URL.Query().Get("context"),
	}
	res, err := s.AI.Generate(ctx, req)
	if err != nil {
		var perr *ai.ProviderError
		if errors.As(err, &perr) {
			s.fail(w, http.StatusBadGateway, perr.Code, perr.Message)
			return
		}
		s.Log.Error().Err(err).Msg("recommendation generation failed")
		s.fail(w, http.StatusBadGateway, "generation_failed", "Could not generate recommendations")
		return
	}

	s.Cache.Set(ctx, nsRecommendations, payload, res, s.Cfg.RecommendationCacheTTL())
	s.success(w, res, "Recommendations generated successfully")
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.success(w, s.Cache.Stats(r.Context()), "Cache statistics retrieved")
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if !s.Cache.Clear(r.Context()) {
		s.fail(w, http.StatusInternalServerError, "cache_error", "Failed to clear cache")
		return
	}
	s.success(w, map[string]bool{"cleared": true}, "Cache cleared")
}

// reencode converts a cache hit back into its typed form; the redis provider
// round-trips values through JSON, so a hit may surface as generic maps.
func reencode(from, to any) error {
	raw, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, to)
}
