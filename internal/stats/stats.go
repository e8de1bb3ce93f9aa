// Package stats derives performance statistics from raw Strava activities:
// per-activity metrics, aggregate totals, and a text summary for the
// recommendation prompt.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sportyhq/sporty/internal/strava"
)

// ActivityStats is a single activity reduced to its performance metrics.
// Nullable fields stay pointers so the JSON output distinguishes "not
// measured" from zero.
type ActivityStats struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	SportType      string `json:"sport_type"`
	StartDate      string `json:"start_date"`
	StartDateLocal string `json:"start_date_local"`

	DistanceM      float64  `json:"distance"`
	MovingTimeSec  int64    `json:"moving_time"`
	ElapsedTimeSec int64    `json:"elapsed_time"`
	ElevationGainM float64  `json:"total_elevation_gain"`
	AvgSpeedMS     float64  `json:"average_speed"`
	MaxSpeedMS     float64  `json:"max_speed"`
	HasHeartrate   bool     `json:"has_heartrate"`
	AvgHeartrate   *float64 `json:"average_heartrate"`
	MaxHeartrate   *float64 `json:"max_heartrate"`
	ElevHigh       *float64 `json:"elev_high"`
	ElevLow        *float64 `json:"elev_low"`

	AchievementCount int `json:"achievement_count"`
	PRCount          int `json:"pr_count"`

	// Derived metrics.
	MovingTimeMinutes float64  `json:"moving_time_minutes"`
	DistanceKM        float64  `json:"distance_km"`
	AvgSpeedKMH       *float64 `json:"average_speed_kmh"`
	MaxSpeedKMH       *float64 `json:"max_speed_kmh"`
	PacePerKM         *float64 `json:"pace_per_km"` // seconds per km
}

// Metrics aggregates a set of activities.
type Metrics struct {
	TotalDistanceKM  float64        `json:"total_distance_km"`
	TotalTimeMinutes float64        `json:"total_time_minutes"`
	AvgSpeedKMH      float64        `json:"avg_speed_kmh"`
	AvgHeartrate     float64        `json:"avg_heartrate"`
	TotalElevationM  float64        `json:"total_elevation"`
	ActivityCount    int            `json:"activity_count"`
	ActivityTypes    map[string]int `json:"activity_types"`
}

// ExtractPerformance filters raw activities down to those with performance
// data and computes per-activity derived metrics. Activities qualify with
// distance plus time, or time alone (strength training has no distance).
func ExtractPerformance(activities []strava.Activity) []ActivityStats {
	out := make([]ActivityStats, 0, len(activities))
	for _, a := range activities {
		if a.MovingTime <= 0 {
			continue
		}
		s := ActivityStats{
			ID:               a.ID,
			Name:             a.Name,
			Type:             a.Type,
			SportType:        a.SportType,
			StartDate:        a.StartDate,
			StartDateLocal:   a.StartDateLocal,
			DistanceM:        a.Distance,
			MovingTimeSec:    a.MovingTime,
			ElapsedTimeSec:   a.ElapsedTime,
			ElevationGainM:   a.TotalElevationGain,
			AvgSpeedMS:       a.AverageSpeed,
			MaxSpeedMS:       a.MaxSpeed,
			HasHeartrate:     a.HasHeartrate,
			AvgHeartrate:     a.AverageHeartrate,
			MaxHeartrate:     a.MaxHeartrate,
			ElevHigh:         a.ElevHigh,
			ElevLow:          a.ElevLow,
			AchievementCount: a.AchievementCount,
			PRCount:          a.PRCount,

			MovingTimeMinutes: round2(float64(a.MovingTime) / 60),
		}
		if a.Distance > 0 {
			s.DistanceKM = round2(a.Distance / 1000)
			if a.AverageSpeed > 0 {
				s.AvgSpeedKMH = ptr(round2(a.AverageSpeed * 3.6))
			}
			if a.MaxSpeed > 0 {
				s.MaxSpeedKMH = ptr(round2(a.MaxSpeed * 3.6))
			}
			s.PacePerKM = ptr(round2(float64(a.MovingTime) / (a.Distance / 1000)))
		}
		out = append(out, s)
	}
	return out
}

// Aggregate computes totals and averages over extracted activities.
func Aggregate(activities []ActivityStats) Metrics {
	if len(activities) == 0 {
		return Metrics{ActivityTypes: map[string]int{}}
	}

	m := Metrics{ActivityCount: len(activities), ActivityTypes: map[string]int{}}
	var speedSum float64
	var speedN int
	var hrSum float64
	var hrN int
	for _, a := range activities {
		m.TotalDistanceKM += a.DistanceKM
		m.TotalTimeMinutes += a.MovingTimeMinutes
		m.TotalElevationM += a.ElevationGainM
		if a.AvgSpeedKMH != nil {
			speedSum += *a.AvgSpeedKMH
			speedN++
		}
		if a.AvgHeartrate != nil {
			hrSum += *a.AvgHeartrate
			hrN++
		}
		sport := a.SportType
		if sport == "" {
			sport = "Unknown"
		}
		m.ActivityTypes[sport]++
	}

	m.TotalDistanceKM = round1(m.TotalDistanceKM)
	m.TotalTimeMinutes = round1(m.TotalTimeMinutes)
	m.TotalElevationM = math.Round(m.TotalElevationM)
	if speedN > 0 {
		m.AvgSpeedKMH = round1(speedSum / float64(speedN))
	}
	if hrN > 0 {
		m.AvgHeartrate = math.Round(hrSum / float64(hrN))
	}
	return m
}

// Summary renders the aggregate metrics as the text block fed to the
// recommendation prompt.
func Summary(activities []ActivityStats) string {
	m := Aggregate(activities)
	if m.ActivityCount == 0 {
		return "No performance data available."
	}

	types := make([]string, 0, len(m.ActivityTypes))
	for sport := range m.ActivityTypes {
		types = append(types, sport)
	}
	sort.Strings(types)
	pairs := make([]string, 0, len(types))
	for _, sport := range types {
		pairs = append(pairs, fmt.Sprintf("%s: %d", sport, m.ActivityTypes[sport]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Performance Summary (Last %d activities):\n", m.ActivityCount)
	fmt.Fprintf(&b, "- Total Distance: %.1f km\n", m.TotalDistanceKM)
	fmt.Fprintf(&b, "- Total Time: %.1f minutes\n", m.TotalTimeMinutes)
	fmt.Fprintf(&b, "- Average Speed: %.1f km/h\n", m.AvgSpeedKMH)
	fmt.Fprintf(&b, "- Average Heart Rate: %.0f bpm\n", m.AvgHeartrate)
	fmt.Fprintf(&b, "- Total Elevation: %.0f m\n", m.TotalElevationM)
	fmt.Fprintf(&b, "- Activity Types: %s", strings.Join(pairs, ", "))
	return b.String()
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }

func ptr(v float64) *float64 { return &v }
