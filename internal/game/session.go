// internal/game/session.go
package game

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks a single battle from the moment it is entered until its end
// screen is dismissed.
type Session struct {
	ID      uuid.UUID
	Seq     int
	Deploys int
	Started time.Time
	// Forced is set when the battle was ended by the safety ceiling rather
	// than by seeing the end screen.
	Forced bool
}

// NewSession creates a session with a fresh ID.
func NewSession(seq int, started time.Time) *Session {
	return &Session{
		ID:      uuid.New(),
		Seq:     seq,
		Started: started,
	}
}
