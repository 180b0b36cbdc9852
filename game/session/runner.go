package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nanakusa/frontier/audit"
	"github.com/nanakusa/frontier/config"
	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/game/factory"
)

var (
	ErrBattleInProgress = errors.New("session: a battle is already in progress")
	ErrNoBattle         = errors.New("session: no active battle")
)

// BattleRunner owns the live battle instances. It enforces one battle
// per trainer, pumps engine events to the trainer's socket and reports
// finished battles back to the factory service.
type BattleRunner struct {
	mu      sync.RWMutex
	battles map[int64]*activeBattle // trainerID → battle

	engine   *battle.Engine
	fac      *factory.Service
	auditSvc *audit.Service
	sessions *Manager
	cfg      config.BattleConfig
	logger   *zap.Logger
	wg       sync.WaitGroup
}

type activeBattle struct {
	battleID string
	runID    int64
	instance *battle.Instance
	cancel   context.CancelFunc
}

// NewBattleRunner creates a BattleRunner. auditSvc may be nil.
func NewBattleRunner(engine *battle.Engine, fac *factory.Service, auditSvc *audit.Service, sessions *Manager, cfg config.BattleConfig, logger *zap.Logger) *BattleRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BattleRunner{
		battles:  make(map[int64]*activeBattle),
		engine:   engine,
		fac:      fac,
		auditSvc: auditSvc,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start prepares the run's next battle and launches it. The returned
// battle ID names the record the battle will be stored under.
func (br *BattleRunner) Start(ctx context.Context, s *TrainerSession, runID int64) (string, error) {
	br.mu.Lock()
	if _, ok := br.battles[s.TrainerID]; ok {
		br.mu.Unlock()
		return "", ErrBattleInProgress
	}
	// Reserve the slot before the (slow) prepare step.
	ab := &activeBattle{}
	br.battles[s.TrainerID] = ab
	br.mu.Unlock()

	prep, err := br.fac.PrepareBattle(ctx, runID, s.AccountID)
	if err != nil {
		br.remove(s.TrainerID)
		return "", err
	}

	inst := battle.NewInstance(battle.InstanceConfig{
		Engine:       br.engine,
		Seed:         prep.Seed,
		Player:       prep.Player,
		Opponent:     prep.Foe,
		Policy:       battle.GreedyPolicy{},
		Logger:       br.logger,
		InputTimeout: br.cfg.InputTimeout,
		EventBuffer:  br.cfg.EventBuffer,
	})
	runCtx, cancel := context.WithCancel(context.Background())

	br.mu.Lock()
	ab.battleID = uuid.NewString()
	ab.runID = prep.Run.ID
	ab.instance = inst
	ab.cancel = cancel
	br.mu.Unlock()

	br.logger.Info("battle starting",
		zap.String("battle_id", ab.battleID),
		zap.Int64("run_id", prep.Run.ID),
		zap.Int64("trainer_id", s.TrainerID),
		zap.String("opponent", prep.FoeTrainer))

	br.wg.Add(1)
	go br.run(runCtx, s, ab, prep)
	return ab.battleID, nil
}

// SubmitAction forwards a trainer's action into their live battle.
func (br *BattleRunner) SubmitAction(trainerID int64, act battle.Action) error {
	br.mu.RLock()
	ab := br.battles[trainerID]
	var inst *battle.Instance
	if ab != nil {
		inst = ab.instance
	}
	br.mu.RUnlock()

	if inst == nil {
		return ErrNoBattle
	}
	inst.SubmitInput(act)
	return nil
}

// Abort cancels the trainer's live battle, scoring it as a forfeit.
// Called on disconnect; a no-op when no battle is running.
func (br *BattleRunner) Abort(trainerID int64) {
	br.mu.RLock()
	ab := br.battles[trainerID]
	var cancel context.CancelFunc
	if ab != nil {
		cancel = ab.cancel
	}
	br.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
}

// Count returns the number of live battles.
func (br *BattleRunner) Count() int {
	br.mu.RLock()
	defer br.mu.RUnlock()
	return len(br.battles)
}

// Stop aborts every live battle and waits for their reports to land.
func (br *BattleRunner) Stop() {
	br.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(br.battles))
	for _, ab := range br.battles {
		if ab.cancel != nil {
			cancels = append(cancels, ab.cancel)
		}
	}
	br.mu.RUnlock()

	for _, cancel := range cancels {
		cancel()
	}
	br.wg.Wait()
}

func (br *BattleRunner) remove(trainerID int64) {
	br.mu.Lock()
	delete(br.battles, trainerID)
	br.mu.Unlock()
}

// run drives one battle to completion: event pump, the engine loop,
// then the report back to the factory.
func (br *BattleRunner) run(ctx context.Context, s *TrainerSession, ab *activeBattle, prep *factory.Prepared) {
	defer br.wg.Done()
	defer br.remove(s.TrainerID)

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		for evt := range ab.instance.Events() {
			payload, err := json.Marshal(evt)
			if err != nil {
				br.logger.Error("marshal battle event", zap.Error(err))
				continue
			}
			s.Send(&Packet{Type: evt.EventType(), Payload: payload})
		}
	}()

	outcome := ab.instance.Run(ctx)
	<-pumped

	st := ab.instance.State()
	prog, err := br.fac.ReportBattle(context.Background(), factory.BattleReport{
		RunID:      ab.runID,
		AccountID:  s.AccountID,
		TrainerID:  s.TrainerID,
		BattleID:   ab.battleID,
		Opponent:   prep.FoeTrainer,
		Round:      prep.Run.Round,
		PrepSeed:   prep.PrepSeed,
		PlayerSets: prep.PlayerSets,
		FoeSets:    prep.FoeSets,
		Seed:       prep.Seed,
		Outcome:    outcome,
		Turns:      st.Turn,
		Transcript: st.Transcript,
		Events:     st.Events,
	})
	if err != nil {
		br.logger.Error("battle report failed",
			zap.String("battle_id", ab.battleID),
			zap.Error(err))
		return
	}

	if data, err := json.Marshal(prog.Run); err == nil {
		s.Send(&Packet{Type: "run_update", Payload: data})
	}
	if prog.Milestone != "" && br.sessions != nil {
		br.sessions.Announce(prog.Milestone)
	}
	if br.auditSvc != nil {
		runID, trainerID, accountID := ab.runID, s.TrainerID, s.AccountID
		br.auditSvc.Log(audit.Entry{
			TrainerID:   &trainerID,
			AccountID:   &accountID,
			TrainerName: s.TrainerName,
			Action:      "battle.end",
			Request:     map[string]interface{}{"battle_id": ab.battleID, "opponent": prep.FoeTrainer},
			Response:    map[string]interface{}{"outcome": outcome.String(), "turns": st.Turn},
			RunID:       &runID,
		})
	}

	br.logger.Info("battle ended",
		zap.String("battle_id", ab.battleID),
		zap.Int64("trainer_id", s.TrainerID),
		zap.String("outcome", outcome.String()),
		zap.Int("turns", st.Turn))
}
