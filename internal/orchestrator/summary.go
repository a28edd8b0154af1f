// internal/orchestrator/summary.go
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/arenabot/internal/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BattleRecord describes one finished battle.
type BattleRecord struct {
	Seq       int           `json:"seq"`
	SessionID string        `json:"session_id"`
	Deploys   int           `json:"deploys"`
	Duration  time.Duration `json:"duration_ns"`
	Forced    bool          `json:"forced"`
}

// Summary is the partial or final progress of a run.
type Summary struct {
	RunID         string         `json:"run_id"`
	Mode          string         `json:"mode"`
	GamesPlayed   int            `json:"games_played"`
	CardsDeployed int            `json:"cards_deployed"`
	ForcedEnds    int            `json:"forced_ends"`
	Interrupted   bool           `json:"interrupted"`
	StartedAt     time.Time      `json:"started_at"`
	EndedAt       time.Time      `json:"ended_at"`
	Battles       []BattleRecord `json:"battles"`
}

func newSummary(runID uuid.UUID, started time.Time) *Summary {
	return &Summary{RunID: runID.String(), StartedAt: started, Battles: []BattleRecord{}}
}

func (s *Summary) recordBattle(sess *game.Session, d time.Duration) {
	s.Battles = append(s.Battles, BattleRecord{
		Seq:       sess.Seq,
		SessionID: sess.ID.String(),
		Deploys:   sess.Deploys,
		Duration:  d,
		Forced:    sess.Forced,
	})
	if sess.Forced {
		s.ForcedEnds++
	}
}

// Elapsed is the wall time of the run.
func (s *Summary) Elapsed() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// WriteJSON writes the summary to path, creating parent directories.
func (s *Summary) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary to %s: %w", path, err)
	}
	return nil
}
