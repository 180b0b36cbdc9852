package model

import "time"

// Account is a login identity. Everything trainer-facing lives on
// TrainerProfile; this row only carries credentials and ban state.
type Account struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string     `gorm:"size:72;not null" json:"-"`
	Status       int        `gorm:"default:1" json:"status"` // 0 banned, 1 active
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLoginIP  string     `gorm:"size:45" json:"last_login_ip"` // fits IPv6
}
