package battle

import "fmt"

// TranscriptEntry is one accepted submission: a full turn's actions,
// or a single forced replacement between turns.
type TranscriptEntry struct {
	Turn    int      `json:"turn"`
	Actions []Action `json:"actions"`
	Replace bool     `json:"replace,omitempty"`
}

// Replay re-simulates a recorded battle. Given the same engine data,
// seed, freshly built parties and the recorded transcript, the replay
// produces the identical event log.
func Replay(e *Engine, seed uint32, sideA, sideB []*Pokemon, transcript []TranscriptEntry) (*State, error) {
	st := e.StartBattle(seed, sideA, sideB)
	for i, entry := range transcript {
		var err error
		if entry.Replace {
			if len(entry.Actions) != 1 {
				return nil, fmt.Errorf("battle: replay entry %d: replacement wants exactly one action", i)
			}
			_, err = e.SubmitReplacement(st, entry.Actions[0].Pos, entry.Actions[0].SwitchTo)
		} else {
			_, err = e.ProcessTurn(st, entry.Actions)
		}
		if err != nil {
			return nil, fmt.Errorf("battle: replay entry %d: %w", i, err)
		}
	}
	return st, nil
}
