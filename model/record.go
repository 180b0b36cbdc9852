package model

import (
	"time"

	"gorm.io/datatypes"
)

// BattleRecord persists one finished battle: the seed, the action
// transcript and the emitted event log. Replaying the transcript
// against the same seed reproduces the battle exactly.
//
// PrepSeed, Round and the set ID columns pin the battle's inputs, so
// both parties can be rebuilt from rental data alone and the stored
// event log verified against a fresh simulation.
type BattleRecord struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BattleID   string         `gorm:"uniqueIndex;size:36;not null" json:"battle_id"`
	RunID      *int64         `gorm:"index:idx_record_run" json:"run_id"`
	AccountID  int64          `gorm:"index:idx_record_account;not null" json:"account_id"`
	TrainerID  int64          `json:"trainer_id"`
	Opponent   string         `gorm:"size:64" json:"opponent"`
	Round      int            `json:"round"`
	Seed       int64          `gorm:"not null" json:"seed"`
	PrepSeed   int64          `json:"prep_seed"`
	PlayerSets datatypes.JSON `json:"player_sets"`
	FoeSets    datatypes.JSON `json:"foe_sets"`
	Turns      int            `json:"turns"`
	Outcome    string         `gorm:"size:16" json:"outcome"`
	Actions    datatypes.JSON `json:"actions"`
	Events     datatypes.JSON `json:"events"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
