package battle

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// InstanceConfig configures a live battle. Side 0 is driven by inputs
// pushed into the instance, side 1 by the opponent policy.
type InstanceConfig struct {
	Engine   *Engine
	Seed     uint32 // 0 = derive from the clock
	Player   []*Pokemon
	Opponent []*Pokemon

	Policy       OpponentPolicy // nil = FirstLegalPolicy{}
	Logger       *zap.Logger
	InputTimeout time.Duration // 0 = 2 minutes
	EventBuffer  int           // 0 = 64
}

// Instance manages a complete battle lifecycle. The session layer runs
// Run in its own goroutine, forwards packets from the client into
// SubmitInput and broadcasts everything read from Events.
type Instance struct {
	eng    *Engine
	st     *State
	policy OpponentPolicy
	logger *zap.Logger

	inputTimeout time.Duration
	events       chan BattleEvent
	inputs       chan Action

	// streamed is the cursor into st.Events up to which the log has
	// been pushed onto the events channel.
	streamed int
}

// NewInstance sets up the battle state and leads. Run starts the loop.
func NewInstance(cfg InstanceConfig) *Instance {
	if cfg.Policy == nil {
		cfg.Policy = FirstLegalPolicy{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint32(time.Now().UnixNano())
	}
	timeout := cfg.InputTimeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	buf := cfg.EventBuffer
	if buf <= 0 {
		buf = 64
	}

	return &Instance{
		eng:          cfg.Engine,
		st:           cfg.Engine.StartBattle(cfg.Seed, cfg.Player, cfg.Opponent),
		policy:       cfg.Policy,
		logger:       cfg.Logger,
		inputTimeout: timeout,
		events:       make(chan BattleEvent, buf),
		inputs:       make(chan Action, 8),
	}
}

// Events returns the event channel. Consumers read from it to broadcast
// battle events to clients; it is closed when Run returns.
func (b *Instance) Events() <-chan BattleEvent {
	return b.events
}

// SubmitInput pushes a player action without blocking.
func (b *Instance) SubmitInput(act Action) {
	select {
	case b.inputs <- act:
	default:
	}
}

// State exposes the underlying battle state for persistence. Only safe
// to touch after Run has returned.
func (b *Instance) State() *State {
	return b.st
}

// Run executes the battle main loop and blocks until the battle ends.
// A cancelled context or an input timeout counts as a player forfeit.
func (b *Instance) Run(ctx context.Context) Outcome {
	defer close(b.events)

	b.flush()

	for !b.st.Over() {
		if b.st.AwaitingInput() {
			if !b.resolveReplacements(ctx) {
				return b.abort()
			}
			continue
		}

		actions, ok := b.collectActions(ctx)
		if !ok {
			return b.abort()
		}
		if _, err := b.eng.ProcessTurn(b.st, actions); err != nil {
			b.logger.Warn("turn rejected", zap.Int("turn", b.st.Turn), zap.Error(err))
			continue
		}
		b.flush()
	}
	return b.st.Outcome
}

// collectActions gathers one action per living battler: scripted
// positions from the policy, player positions from the input channel.
func (b *Instance) collectActions(ctx context.Context) ([]Action, bool) {
	var actions []Action
	pending := make(map[int]bool)
	for _, pos := range b.st.OccupiedPositions() {
		if !b.st.At(pos).Alive() {
			continue
		}
		if SideOf(pos) == 1 {
			actions = append(actions, b.policy.ChooseAction(b.eng, b.st, pos))
			continue
		}
		pending[pos] = true
	}
	if len(pending) == 0 {
		return actions, true
	}

	b.emitEvent(EventInputRequest{Positions: sortedKeys(pending)})

	timer := time.NewTimer(b.inputTimeout)
	defer timer.Stop()
	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return nil, false
		case <-timer.C:
			b.logger.Warn("input timeout", zap.Int("turn", b.st.Turn))
			return nil, false
		case act := <-b.inputs:
			if !pending[act.Pos] {
				continue
			}
			delete(pending, act.Pos)
			actions = append(actions, act)
		}
	}
	return actions, true
}

// resolveReplacements fills every empty slot: scripted sides right
// away, player slots by waiting for a switch input.
func (b *Instance) resolveReplacements(ctx context.Context) bool {
	pending := make(map[int]bool)
	for pos := 0; pos < MaxPositions; pos++ {
		if !b.st.NeedReplacement[pos] {
			continue
		}
		if SideOf(pos) == 1 {
			pick := b.policy.ChooseReplacement(b.eng, b.st, pos)
			if _, err := b.eng.SubmitReplacement(b.st, pos, pick); err != nil {
				b.logger.Warn("scripted replacement rejected", zap.Int("pos", pos), zap.Error(err))
			}
			b.flush()
			continue
		}
		pending[pos] = true
	}
	if len(pending) == 0 || b.st.Over() {
		return true
	}

	b.emitEvent(EventInputRequest{Positions: sortedKeys(pending), Replace: true})

	timer := time.NewTimer(b.inputTimeout)
	defer timer.Stop()
	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			b.logger.Warn("replacement timeout")
			return false
		case act := <-b.inputs:
			if !pending[act.Pos] {
				continue
			}
			if _, err := b.eng.SubmitReplacement(b.st, act.Pos, act.SwitchTo); err != nil {
				b.logger.Warn("replacement rejected", zap.Int("pos", act.Pos), zap.Error(err))
				continue
			}
			b.flush()
			delete(pending, act.Pos)
		}
	}
	return true
}

// abort ends the battle as a player forfeit so the log closes with a
// proper battle_end entry.
func (b *Instance) abort() Outcome {
	if b.st.Over() {
		return b.st.Outcome
	}
	var actions []Action
	for _, pos := range b.st.OccupiedPositions() {
		if !b.st.At(pos).Alive() {
			continue
		}
		if SideOf(pos) == 0 {
			actions = append(actions, Action{Type: ActionForfeit, Pos: pos})
		} else {
			actions = append(actions, b.policy.ChooseAction(b.eng, b.st, pos))
		}
	}
	if _, err := b.eng.ProcessTurn(b.st, actions); err != nil {
		// Suspended mid-replacement; settle the result directly. The
		// closing event goes straight to the channel so the persisted
		// log stays a pure function of seed and transcript.
		b.st.Outcome = OutcomeLoss
		b.flush()
		b.emitEvent(EventBattleEnd{Outcome: b.st.Outcome.String(), Turns: b.st.Turn})
		return b.st.Outcome
	}
	b.flush()
	return b.st.Outcome
}

// flush streams any log entries not yet pushed to the channel.
func (b *Instance) flush() {
	for _, evt := range b.st.Events[b.streamed:] {
		b.emitEvent(evt)
	}
	b.streamed = len(b.st.Events)
}

func (b *Instance) emitEvent(evt BattleEvent) {
	select {
	case b.events <- evt:
	default:
		b.logger.Warn("battle event dropped (channel full)", zap.String("type", evt.EventType()))
	}
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
