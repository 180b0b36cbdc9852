package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/model"
)

// BattleReport is the outcome bundle the session runner hands back when
// a battle finishes.
type BattleReport struct {
	RunID      int64
	AccountID  int64
	TrainerID  int64
	BattleID   string
	Opponent   string
	Round      int
	PrepSeed   uint32
	PlayerSets []int
	FoeSets    []int
	Seed       uint32
	Outcome    battle.Outcome
	Turns      int
	Transcript []battle.TranscriptEntry
	Events     []battle.BattleEvent
}

// Progress reports how a battle moved the run along.
type Progress struct {
	Run          *model.FactoryRun
	RoundCleared bool
	RunOver      bool
	Milestone    string
}

// ReportBattle persists the battle record and advances the run. A win
// extends the streak and opens the swap window; clearing the round
// deals a fresh draft. Anything else ends the run.
func (svc *Service) ReportBattle(ctx context.Context, rep BattleReport) (*Progress, error) {
	run, err := svc.getOwned(ctx, rep.RunID, rep.AccountID)
	if err != nil {
		return nil, err
	}
	if run.Status != model.RunStatusActive {
		return nil, ErrNoTeam
	}

	actions, _ := json.Marshal(rep.Transcript)
	events, _ := json.Marshal(rep.Events)
	rec := &model.BattleRecord{
		BattleID:   rep.BattleID,
		RunID:      &run.ID,
		AccountID:  rep.AccountID,
		TrainerID:  rep.TrainerID,
		Opponent:   rep.Opponent,
		Round:      rep.Round,
		Seed:       int64(rep.Seed),
		PrepSeed:   int64(rep.PrepSeed),
		PlayerSets: intsJSON(rep.PlayerSets),
		FoeSets:    intsJSON(rep.FoeSets),
		Turns:      rep.Turns,
		Outcome:    rep.Outcome.String(),
		Actions:    datatypes.JSON(actions),
		Events:     datatypes.JSON(events),
	}
	if err := svc.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("factory: create record: %w", err)
	}

	var prof model.TrainerProfile
	if err := svc.db.WithContext(ctx).First(&prof, run.TrainerID).Error; err != nil {
		return nil, fmt.Errorf("factory: query profile: %w", err)
	}

	prog := &Progress{Run: run}
	if rep.Outcome == battle.OutcomeWin {
		run.Streak++
		run.BattleNum++
		run.LastFoes = intsJSON(rep.FoeSets)
		prof.Wins++
		if run.Streak > prof.BestStreak {
			prof.BestStreak = run.Streak
			svc.pushStreak(ctx, prof.ID, prof.BestStreak)
		}
		if run.BattleNum >= svc.cfg.BattlesPerRound {
			cleared := run.Round
			run.Round++
			run.BattleNum = 0
			run.Status = model.RunStatusDrafting
			run.Team = nil
			run.LastFoes = nil
			run.Offers = intsJSON(svc.draft(draftStream(run.Seed, run.Round), svc.res.Rentals))
			prog.RoundCleared = true
			prog.Milestone = fmt.Sprintf("%s swept round %d of the Battle Factory (streak %d)",
				prof.Name, cleared, run.Streak)
		}
	} else {
		// A draw ends the challenge the same way a loss does.
		now := time.Now()
		run.Status = model.RunStatusLost
		run.EndedAt = &now
		run.LastFoes = nil
		prof.Losses++
		prog.RunOver = true
	}

	if err := svc.db.WithContext(ctx).Save(run).Error; err != nil {
		return nil, fmt.Errorf("factory: save run: %w", err)
	}
	if err := svc.db.WithContext(ctx).Save(&prof).Error; err != nil {
		return nil, fmt.Errorf("factory: save profile: %w", err)
	}

	svc.logger.Info("battle reported",
		zap.Int64("run_id", run.ID),
		zap.String("battle_id", rep.BattleID),
		zap.String("outcome", rep.Outcome.String()),
		zap.Int("streak", run.Streak))
	return prog, nil
}
