// Package db is the hand-wired pgx query layer for token and workout
// persistence.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries wraps a pool with the application's SQL.
type Queries struct {
	pool *pgxpool.Pool
}

// New returns a query layer over the given pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// Bootstrap creates the tables if they do not exist yet. Schema evolution
// beyond that is out of scope.
func (q *Queries) Bootstrap(ctx context.Context) error {
	_, err := q.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS strava_tokens (
	athlete_id    BIGINT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expires_at    BIGINT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS workouts (
	athlete_id   BIGINT NOT NULL,
	source_id    BIGINT NOT NULL,
	name         TEXT,
	sport        TEXT NOT NULL,
	started_at   TIMESTAMPTZ,
	duration_sec INT NOT NULL,
	distance_m   DOUBLE PRECISION,
	elev_gain_m  DOUBLE PRECISION,
	avg_hr       INT,
	raw_json     JSONB,
	PRIMARY KEY (athlete_id, source_id)
);`)
	if err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

// StravaTokens is a persisted OAuth token set. ExpiresAt is unix seconds,
// matching Strava's token payload.
type StravaTokens struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	UpdatedAt    time.Time
}

// UpsertStravaTokens stores or replaces the token set for an athlete.
func (q *Queries) UpsertStravaTokens(ctx context.Context, t StravaTokens) error {
	_, err := q.pool.Exec(ctx, `
INSERT INTO strava_tokens (athlete_id, access_token, refresh_token, expires_at, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (athlete_id) DO UPDATE
SET access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at = EXCLUDED.expires_at,
    updated_at = now()`,
		t.AthleteID, t.AccessToken, t.RefreshToken, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert strava tokens: %w", err)
	}
	return nil
}

// GetStravaTokens returns the most recently stored token set, or nil when
// nothing is stored.
func (q *Queries) GetStravaTokens(ctx context.Context) (*StravaTokens, error) {
	row := q.pool.QueryRow(ctx, `
SELECT athlete_id, access_token, refresh_token, expires_at, updated_at
FROM strava_tokens
ORDER BY updated_at DESC
LIMIT 1`)
	var t StravaTokens
	err := row.Scan(&t.AthleteID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get strava tokens: %w", err)
	}
	return &t, nil
}

// DeleteStravaTokens removes all stored token sets.
func (q *Queries) DeleteStravaTokens(ctx context.Context) error {
	if _, err := q.pool.Exec(ctx, `DELETE FROM strava_tokens`); err != nil {
		return fmt.Errorf("delete strava tokens: %w", err)
	}
	return nil
}

// Workout is a synced activity row.
type Workout struct {
	AthleteID   int64
	SourceID    int64
	Name        pgtype.Text
	Sport       string
	StartedAt   pgtype.Timestamptz
	DurationSec int32
	DistanceM   pgtype.Float8
	ElevGainM   pgtype.Float8
	AvgHr       pgtype.Int4
	RawJSON     []byte
}

// UpsertWorkout stores or refreshes a synced activity.
func (q *Queries) UpsertWorkout(ctx context.Context, w Workout) error {
	_, err := q.pool.Exec(ctx, `
INSERT INTO workouts (athlete_id, source_id, name, sport, started_at, duration_sec, distance_m, elev_gain_m, avg_hr, raw_json)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (athlete_id, source_id) DO UPDATE
SET name = EXCLUDED.name,
    sport = EXCLUDED.sport,
    started_at = EXCLUDED.started_at,
    duration_sec = EXCLUDED.duration_sec,
    distance_m = EXCLUDED.distance_m,
    elev_gain_m = EXCLUDED.elev_gain_m,
    avg_hr = EXCLUDED.avg_hr,
    raw_json = EXCLUDED.raw_json`,
		w.AthleteID, w.SourceID, w.Name, w.Sport, w.StartedAt,
		w.DurationSec, w.DistanceM, w.ElevGainM, w.AvgHr, w.RawJSON)
	if err != nil {
		return fmt.Errorf("upsert workout: %w", err)
	}
	return nil
}

// ListWorkouts returns the most recent workouts for an athlete.
func (q *Queries) ListWorkouts(ctx context.Context, athleteID int64, limit int32) ([]Workout, error) {
	rows, err := q.pool.Query(ctx, `
SELECT athlete_id, source_id, name, sport, started_at, duration_sec, distance_m, elev_gain_m, avg_hr, raw_json
FROM workouts
WHERE athlete_id = $1
ORDER BY started_at DESC NULLS LAST
LIMIT $2`, athleteID, limit)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var out []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(&w.AthleteID, &w.SourceID, &w.Name, &w.Sport, &w.StartedAt,
			&w.DurationSec, &w.DistanceM, &w.ElevGainM, &w.AvgHr, &w.RawJSON); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
