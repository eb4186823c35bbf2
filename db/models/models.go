package models

import "gorm.io/gorm"

// Session is one seeding run against one tracker.
type Session struct {
	gorm.Model
	RunID     string `gorm:"uniqueIndex"`
	InfoHash  string `gorm:"index"`
	Name      string
	Announce  string
	TotalSize uint64
	Uploaded  uint64
	Status    SessionStatus
	StartedAt int64
	StoppedAt int64

	Announces []Announce
}

type SessionStatus = string

const (
	SessionActive  SessionStatus = "active"
	SessionStopped SessionStatus = "stopped"
)

// Announce is one announce exchange within a session.
type Announce struct {
	ID        uint `gorm:"primaryKey"`
	SessionID uint
	Event     string
	Result    string
	OK        bool
	Uploaded  uint64
	SentAt    int64
}
