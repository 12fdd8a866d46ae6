package models

import "time"

type Game struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ReleaseYear int       `json:"release_year"`
	Publisher   string    `json:"publisher"`
	Developer   string    `json:"developer"`
	Genre       string    `json:"genre"`
	CreatedAt   time.Time `json:"created_at"`
}

type Screenshot struct {
	ID           int64     `json:"id"`
	GameID       int64     `json:"game_id"`
	ImagePath    string    `json:"image_path"`
	Quality      int       `json:"quality"` // critic score of the source game
	IsActive     bool      `json:"is_active"`
	UsageCount   int       `json:"usage_count"`
	CorrectCount int       `json:"correct_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScreenshotRef is the slim view the challenge generator draws from.
type ScreenshotRef struct {
	ID      int64 `json:"id"`
	GameID  int64 `json:"game_id"`
	Quality int   `json:"quality"`
}
