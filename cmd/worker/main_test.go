package main

import (
	"fmt"
	"testing"

	"github.com/sportyhq/sporty/internal/strava"
	"github.com/sportyhq/sporty/internal/token"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("fetch /athlete/activities: dial tcp: i/o timeout"), true},
		{fmt.Errorf("GET /athlete/activities -> 429 Too Many Requests: rate limited"), true},
		{fmt.Errorf("GET /athlete/activities -> 503 Service Unavailable: maintenance"), true},
		{fmt.Errorf("refresh strava token: oauth2: cannot fetch token"), true},
		{fmt.Errorf("GET /athlete/activities -> 401 Unauthorized: bad token"), false},
		{fmt.Errorf("upsert workout: invalid input syntax"), false},
		{token.ErrNotAuthenticated, false},
		{fmt.Errorf("sync: %w", token.ErrNotAuthenticated), false},
	}
	for _, tt := range tests {
		if got := retryable(tt.err); got != tt.want {
			t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestWorkoutFromActivity(t *testing.T) {
	hr := 152.6
	a := strava.Activity{
		ID:                 77,
		Name:               "Evening Run",
		SportType:          "Run",
		StartDate:          "2025-06-01T18:00:00Z",
		Distance:           10000,
		ElapsedTime:        3300,
		TotalElevationGain: 120,
		AverageHeartrate:   &hr,
	}

	w := workoutFromActivity(9, a)
	if w.AthleteID != 9 || w.SourceID != 77 {
		t.Errorf("ids = %d/%d", w.AthleteID, w.SourceID)
	}
	if !w.StartedAt.Valid {
		t.Error("start date should parse")
	}
	if w.DurationSec != 3300 {
		t.Errorf("DurationSec = %d", w.DurationSec)
	}
	if !w.AvgHr.Valid || w.AvgHr.Int32 != 152 {
		t.Errorf("AvgHr = %+v", w.AvgHr)
	}
	if len(w.RawJSON) == 0 {
		t.Error("raw json should be populated")
	}
}

func TestWorkoutFromActivityDefaults(t *testing.T) {
	w := workoutFromActivity(1, strava.Activity{ID: 2, StartDate: "not-a-date"})
	if w.Sport != "Unknown" {
		t.Errorf("Sport = %q, want Unknown", w.Sport)
	}
	if w.StartedAt.Valid {
		t.Error("unparseable start date should be null")
	}
	if w.DistanceM.Valid || w.ElevGainM.Valid || w.AvgHr.Valid {
		t.Error("zero metrics should be null")
	}
}
