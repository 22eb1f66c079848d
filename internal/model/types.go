package model

import (
	"errors"
	"time"

	"bizcal/internal/schedule"
)

// ErrNotFound is returned by calendar sources when a calendar or assignment does not exist.
var ErrNotFound = errors.New("not found")

// Object types a calendar can be assigned to.
const (
	ObjectUser    = "user"
	ObjectProcess = "process"
	ObjectTask    = "task"
)

// Calendar is a stored calendar record.
type Calendar struct {
	ID         string
	Name       string
	Definition schedule.Definition
	// Country code used by public-holiday sync, empty when none
	PublicHolidays string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Assignment binds a user, process or task to a calendar.
type Assignment struct {
	ObjectType string
	ObjectID   string
	CalendarID string
}

// Resolution records one resolved business moment and its trace.
type Resolution struct {
	ID          string
	CalendarID  string
	RequestedAt time.Time
	ResolvedAt  time.Time
	Trace       []string
	CreatedAt   time.Time
}
