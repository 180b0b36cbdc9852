package model

import (
	"time"

	"gorm.io/datatypes"
)

// RunStatus tracks where a factory run is in its lifecycle.
type RunStatus = string

const (
	RunStatusDrafting RunStatus = "drafting"
	RunStatusActive   RunStatus = "active"
	RunStatusCleared  RunStatus = "cleared"
	RunStatusLost     RunStatus = "lost"
)

// FactoryRun represents one rental challenge: a draft, then a round of
// battles on the drafted team. Team and Offers hold rental set IDs.
type FactoryRun struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64          `gorm:"index:idx_run_account;not null" json:"account_id"`
	TrainerID int64          `gorm:"index:idx_run_trainer;not null" json:"trainer_id"`
	Status    string         `gorm:"size:16;not null" json:"status"`
	Round     int            `gorm:"default:1" json:"round"`
	BattleNum int            `gorm:"default:0" json:"battle_num"`
	Streak    int            `gorm:"default:0" json:"streak"`
	Seed      int64          `gorm:"not null" json:"seed"`
	Offers    datatypes.JSON `json:"offers"`
	Team      datatypes.JSON `json:"team"`
	// LastFoes holds the set IDs of the most recently beaten opponent
	// team; non-empty means a swap is still available.
	LastFoes  datatypes.JSON `json:"last_foes"`
	EndedAt   *time.Time     `json:"ended_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
