package dto

import "time"

type JobsResponse struct {
	Jobs []string `json:"jobs"`
}

type RunJobResponse struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}
