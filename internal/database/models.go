package database

import (
	"time"
)

// Event is one analytics event kept in the local event log.
// Properties holds the event properties as a JSON object.
type Event struct {
	ID         string    `db:"id"`
	UserID     int64     `db:"user_id"`
	Name       string    `db:"name"`
	Properties string    `db:"properties"`
	CreatedAt  time.Time `db:"created_at"`
}

// EventCount is the number of events with one name.
type EventCount struct {
	Name  string `db:"name"`
	Count int    `db:"count"`
}
