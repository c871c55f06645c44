package dto

import "io"

type AuthorResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type PaginationQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Normalize fills defaults for missing paging parameters.
func (q *PaginationQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
}

func (q PaginationQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

type ReactionsResponse struct {
	Counts      map[string]int64 `json:"counts"`
	UserReacted *string          `json:"user_reacted"`
}

// GamificationStatus is the level/progress view rendered on profiles and leaderboards.
type GamificationStatus struct {
	Level         int    `json:"level"`
	Title         string `json:"title"`
	NextTitle     string `json:"next_title"`
	CurrentPoints int    `json:"current_points"`
	LevelFloor    int    `json:"level_floor"`
	Requirement   int    `json:"requirement"`
	Remaining     int    `json:"remaining"`
	Progress      int    `json:"progress"` // Percentage
	WeeklyPoints  int    `json:"weekly_points"`
	WeeklyLabel   string `json:"weekly_label"`
}

type UploadFile struct {
	Reader   io.Reader
	FileName string
}
