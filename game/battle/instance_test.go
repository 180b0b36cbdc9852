package battle

import (
	"context"
	"testing"
	"time"
)

func TestInstance_PlayerWins(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	// Machamp outdamages a lone Pikachu long before the chip adds up.
	inst := NewInstance(InstanceConfig{
		Engine:       e,
		Seed:         42,
		Player:       []*Pokemon{testMon(rl, 68, 1)},
		Opponent:     []*Pokemon{testMon(rl, 25, 1)},
		InputTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var end EventBattleEnd
	gotEnd := false
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range inst.Events() {
			if ir, ok := evt.(EventInputRequest); ok && !ir.Replace {
				inst.SubmitInput(Action{Type: ActionMove, Pos: ir.Positions[0], MoveSlot: 0, Target: 1})
			}
			if be, ok := evt.(EventBattleEnd); ok {
				end, gotEnd = be, true
			}
		}
	}()

	outcome := inst.Run(ctx)
	<-done

	if outcome != OutcomeWin {
		t.Fatalf("outcome = %v, want win", outcome)
	}
	if !gotEnd {
		t.Fatal("no battle_end event received")
	}
	if end.Outcome != "win" || end.Turns != inst.State().Turn {
		t.Errorf("battle_end = %+v", end)
	}
	if inst.State().At(1).Alive() {
		t.Error("opponent still standing after a win")
	}
}

func TestInstance_InputTimeoutForfeits(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	inst := NewInstance(InstanceConfig{
		Engine:       e,
		Seed:         42,
		Player:       []*Pokemon{testMon(rl, 68, 1)},
		Opponent:     []*Pokemon{testMon(rl, 260, 1)},
		InputTimeout: 50 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sawEnd := false
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain without ever answering the input request.
		for evt := range inst.Events() {
			if be, ok := evt.(EventBattleEnd); ok && be.Outcome == "loss" {
				sawEnd = true
			}
		}
	}()

	outcome := inst.Run(ctx)
	<-done

	if outcome != OutcomeLoss {
		t.Fatalf("outcome = %v after timeout, want loss", outcome)
	}
	if !sawEnd {
		t.Error("no battle_end event for the forfeit")
	}
}

func TestInstance_ContextCancelForfeits(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	inst := NewInstance(InstanceConfig{
		Engine:       e,
		Seed:         42,
		Player:       []*Pokemon{testMon(rl, 68, 1)},
		Opponent:     []*Pokemon{testMon(rl, 260, 1)},
		InputTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range inst.Events() {
		}
	}()
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	outcome := inst.Run(ctx)
	<-done

	if outcome != OutcomeLoss {
		t.Errorf("outcome = %v after cancel, want loss", outcome)
	}
}

func TestInstance_ReplacementFlow(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	// Two Pikachu cannot wear Machamp down; each faint must pull the
	// next one in before the loss lands.
	inst := NewInstance(InstanceConfig{
		Engine:       e,
		Seed:         42,
		Player:       []*Pokemon{testMon(rl, 25, 1), testMon(rl, 25, 1)},
		Opponent:     []*Pokemon{testMon(rl, 68, 1)},
		InputTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sawReplace := false
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range inst.Events() {
			ir, ok := evt.(EventInputRequest)
			if !ok {
				continue
			}
			if ir.Replace {
				sawReplace = true
				inst.SubmitInput(Action{Type: ActionSwitch, Pos: ir.Positions[0], SwitchTo: 1})
			} else {
				inst.SubmitInput(Action{Type: ActionMove, Pos: ir.Positions[0], MoveSlot: 0, Target: 1})
			}
		}
	}()

	outcome := inst.Run(ctx)
	<-done

	if outcome != OutcomeLoss {
		t.Fatalf("outcome = %v, want loss once the bench empties", outcome)
	}
	if !sawReplace {
		t.Fatal("no replacement request reached the player")
	}
	forced := false
	for _, ev := range inst.State().Events {
		if sw, ok := ev.(EventSwitch); ok && sw.Forced {
			forced = true
		}
	}
	if !forced {
		t.Error("no forced switch in the battle log")
	}
}

func TestFirstLegalPolicy_SkipsBarredSlots(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})
	st := e.StartBattle(7, []*Pokemon{testMon(rl, 68, 1)}, []*Pokemon{testMon(rl, 260, 1, 14)})

	var pol FirstLegalPolicy
	act := pol.ChooseAction(e, st, 1)
	if act.Type != ActionMove || act.MoveSlot != 0 {
		t.Fatalf("action = %+v, want move slot 0", act)
	}

	st.Timers[1].DisabledMove = 1
	st.Timers[1].DisableTimer = 2
	act = pol.ChooseAction(e, st, 1)
	if act.MoveSlot != 1 {
		t.Errorf("slot = %d with slot 0 disabled, want 1", act.MoveSlot)
	}

	st.At(1).Moves[1].PP = 0
	act = pol.ChooseAction(e, st, 1)
	if act.MoveSlot != -1 {
		t.Errorf("slot = %d with nothing usable, want -1 (Struggle)", act.MoveSlot)
	}
}

func TestFirstLegalPolicy_FollowsALock(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})
	st := e.StartBattle(7, []*Pokemon{testMon(rl, 68, 1)}, []*Pokemon{testMon(rl, 260, 1, 14)})
	st.Timers[1].LockedMove = 14
	st.Timers[1].LockedSlot = 1

	var pol FirstLegalPolicy
	act := pol.ChooseAction(e, st, 1)
	if act.MoveSlot != 1 {
		t.Errorf("slot = %d under a lock, want the locked slot 1", act.MoveSlot)
	}
}

func TestFirstLegalPolicy_Replacement(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})
	st := e.StartBattle(7,
		[]*Pokemon{testMon(rl, 68, 1)},
		[]*Pokemon{testMon(rl, 260, 1), testMon(rl, 143, 1)})
	st.At(1).HP = 0

	var pol FirstLegalPolicy
	if pick := pol.ChooseReplacement(e, st, 1); pick != 1 {
		t.Errorf("replacement pick = %d, want 1", pick)
	}
}
