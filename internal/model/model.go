package model

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two dashboard roles. Elders mark doses taken and raise
// SOS alerts; family members monitor adherence and acknowledge alerts.
type Role string

const (
	RoleElder  Role = "elder"
	RoleFamily Role = "family"
)

// User is the session identity sourced from the login flow. The email doubles
// as the channel key for medication and alert state.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DoseStatus is the only medication status persisted remotely.
type DoseStatus string

const (
	DoseUntaken DoseStatus = "untaken"
	DoseTaken   DoseStatus = "taken"
)

// DerivedStatus is computed client-side from the schedule and the wall clock.
// It is never written back; "taken" is implied by the persisted status.
type DerivedStatus string

const (
	StatusUpcoming DerivedStatus = "upcoming"
	StatusMissed   DerivedStatus = "missed"
	StatusTaken    DerivedStatus = "taken"
)

// Medication is one scheduled dose in a user's collection. Time is a 12-hour
// wall-clock string with meridiem marker, e.g. "8:30 AM".
type Medication struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Time      string     `json:"time"`
	Dose      string     `json:"dose"`
	Stock     int        `json:"stock"`
	ForWhom   string     `json:"forWhom"`
	UserEmail string     `json:"userEmail"`
	Status    DoseStatus `json:"status"`

	// Derived is filled in by the snapshot store and never sent over the wire.
	Derived DerivedStatus `json:"-"`
}

// AlertStatus is the handshake state of an emergency alert.
type AlertStatus string

const (
	AlertPending  AlertStatus = "pending"
	AlertResolved AlertStatus = "resolved"
)

// EmergencyAlert is the shared keyed record both clients converge on. At most
// one alert per elder is active at a time; a new alert supersedes the previous
// record under the same key.
type EmergencyAlert struct {
	ID         int64       `json:"id"`
	OwnerEmail string      `json:"email"`
	Active     bool        `json:"active"`
	Status     AlertStatus `json:"status"`
	Message    string      `json:"message"`
	Timestamp  time.Time   `json:"timestamp"`
}

// AlertHistory is the append-only daily log of an elder's alerts. Date is the
// day stamp the log belongs to; a mismatch against today means the log is
// stale and reads as empty.
type AlertHistory struct {
	Date string           `json:"date"`
	Logs []EmergencyAlert `json:"logs"`
}
