// internal/game/state.go
package game

// State is the externally observable phase of the game UI.
type State int

const (
	Unknown State = iota
	MainMenu
	InBattle
	BattleEnded
)

func (s State) String() string {
	switch s {
	case MainMenu:
		return "main_menu"
	case InBattle:
		return "in_battle"
	case BattleEnded:
		return "battle_ended"
	default:
		return "unknown"
	}
}
