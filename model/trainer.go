package model

import "time"

// TrainerProfile represents an account's frontier trainer card.
type TrainerProfile struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID  int64     `gorm:"index:idx_trainer_account;not null" json:"account_id"`
	Name       string    `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Wins       int       `gorm:"default:0" json:"wins"`
	Losses     int       `gorm:"default:0" json:"losses"`
	BestStreak int       `gorm:"default:0" json:"best_streak"`
	TotalRuns  int       `gorm:"default:0" json:"total_runs"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
