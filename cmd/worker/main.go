package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/sportyhq/sporty/internal/config"
	"github.com/sportyhq/sporty/internal/db"
	"github.com/sportyhq/sporty/internal/http/routes"
	"github.com/sportyhq/sporty/internal/jobs"
	"github.com/sportyhq/sporty/internal/strava"
	"github.com/sportyhq/sporty/internal/token"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if !cfg.HasDatabase() {
		logger.Fatal().Msg("DATABASE_URL must be set for the sync worker")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	queries := db.New(pool)
	if err := queries.Bootstrap(ctx); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap schema")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.Strava.ClientID,
		ClientSecret: cfg.Strava.ClientSecret,
		Endpoint:     routes.StravaEndpoint,
	}

	w := &worker{
		q:      queries,
		tokens: token.NewService(token.NewDBStore(queries), oauthCfg, logger),
		strava: strava.NewClient(logger),
		log:    logger,
	}

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: 8,
		Queues: map[string]int{
			"default": 5,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskSyncActivities, w.handleSync)

	logger.Info().Msg("worker running")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}

type worker struct {
	q      *db.Queries
	tokens *token.Service
	strava *strava.Client
	log    zerolog.Logger
}

func (w *worker) handleSync(ctx context.Context, t *asynq.Task) error {
	var p jobs.SyncActivitiesPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("bad sync payload")
		return err
	}

	start := time.Now()
	total, err := w.syncActivities(ctx, p)
	if err != nil {
		if retryable(err) {
			w.log.Warn().Err(err).Int64("athlete_id", p.AthleteID).Msg("sync failed, will retry")
			return err
		}
		w.log.Error().Err(err).Int64("athlete_id", p.AthleteID).Msg("sync failed permanently, dropping job")
		return nil
	}
	w.log.Info().Int64("athlete_id", p.AthleteID).Int("synced", total).
		Dur("duration", time.Since(start)).Msg("sync done")
	return nil
}

func (w *worker) syncActivities(ctx context.Context, p jobs.SyncActivitiesPayload) (int, error) {
	access, err := w.tokens.AccessToken(ctx)
	if err != nil {
		return 0, err
	}

	since := time.Now().AddDate(0, 0, -14)
	if p.SinceUnix != 0 {
		since = time.Unix(p.SinceUnix, 0)
	}

	total := 0
	for page := 1; ; page++ {
		items, err := w.strava.ActivitiesAfter(ctx, access, since.Unix(), page, 50)
		if err != nil {
			return total, err
		}
		if len(items) == 0 {
			break
		}
		for _, a := range items {
			if err := w.q.UpsertWorkout(ctx, workoutFromActivity(p.AthleteID, a)); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func workoutFromActivity(athleteID int64, a strava.Activity) db.Workout {
	startedAt, parseErr := time.Parse(time.RFC3339, a.StartDate)
	raw, _ := json.Marshal(a)

	sport := a.SportType
	if sport == "" {
		sport = a.Type
	}
	if sport == "" {
		sport = "Unknown"
	}

	w := db.Workout{
		AthleteID:   athleteID,
		SourceID:    a.ID,
		Name:        pgtype.Text{String: a.Name, Valid: a.Name != ""},
		Sport:       sport,
		StartedAt:   pgtype.Timestamptz{Time: startedAt, Valid: parseErr == nil},
		DurationSec: int32(a.ElapsedTime),
		DistanceM:   pgtype.Float8{Float64: a.Distance, Valid: a.Distance > 0},
		ElevGainM:   pgtype.Float8{Float64: a.TotalElevationGain, Valid: a.TotalElevationGain > 0},
		RawJSON:     raw,
	}
	if a.AverageHeartrate != nil && *a.AverageHeartrate > 0 {
		w.AvgHr = pgtype.Int4{Int32: int32(*a.AverageHeartrate), Valid: true}
	}
	return w
}

// retryable classifies sync failures: transient upstream trouble goes back on
// the queue, everything else (missing auth, bad data) is dropped.
func retryable(err error) bool {
	if errors.Is(err, token.ErrNotAuthenticated) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"timeout", "connection", "network", "dns",
		"429", "rate limit",
		"500", "502", "503", "504",
		"refresh strava token",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
