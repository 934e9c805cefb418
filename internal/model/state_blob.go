package model

import "time"

// StateBlob backs the database persistence adapter: one row per owner key.
type StateBlob struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     string    `gorm:"type:longtext;not null"`
	UpdatedAt time.Time
}

func (StateBlob) TableName() string {
	return "game_state_blobs"
}
