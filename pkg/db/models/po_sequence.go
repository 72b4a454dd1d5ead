package models

import "time"

// POSequence holds the last PO sequence handed out for a scope (one calendar day).
type POSequence struct {
	Scope     string    `gorm:"column:scope;primaryKey"`
	LastValue int64     `gorm:"column:last_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (POSequence) TableName() string {
	return "po_sequences"
}
