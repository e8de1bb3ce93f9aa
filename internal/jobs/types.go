// Package jobs defines the asynq task names and payloads shared by the API
// and the worker.
package jobs

const TaskSyncActivities = "sync:strava_activities"

type SyncActivitiesPayload struct {
	AthleteID int64 `json:"athlete_id"`
	SinceUnix int64 `json:"since_unix,omitempty"`
}
