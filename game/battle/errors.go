package battle

import (
	"errors"
	"fmt"
)

var (
	// ErrBattleOver is returned when actions arrive after the outcome
	// has been decided.
	ErrBattleOver = errors.New("battle: battle is over")

	// ErrAwaitingReplacement is returned when a normal turn is
	// submitted while a forced replacement is pending.
	ErrAwaitingReplacement = errors.New("battle: replacement input required")
)

// ValidationError rejects a submitted action before any state changes.
// The whole turn is refused; the caller fixes the input and resubmits.
type ValidationError struct {
	Pos    int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("battle: invalid action for pos %d: %s", e.Pos, e.Reason)
}

func validationErr(pos int, format string, args ...any) *ValidationError {
	return &ValidationError{Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

// DataError marks a reference to game data that does not exist. The
// offending action is dropped mid-turn; the rest of the turn runs.
type DataError struct {
	Kind string
	ID   int
}

func (e *DataError) Error() string {
	return fmt.Sprintf("battle: unknown %s %d", e.Kind, e.ID)
}
