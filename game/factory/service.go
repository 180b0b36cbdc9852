package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/cache"
	"github.com/nanakusa/frontier/config"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/resource"
)

// Sentinel errors the REST layer maps to status codes.
var (
	ErrRunNotFound = errors.New("factory: run not found")
	ErrRunActive   = errors.New("factory: an unfinished run already exists")
	ErrRunOver     = errors.New("factory: run already ended")
	ErrNotDrafting = errors.New("factory: run is not drafting")
	ErrNoTeam      = errors.New("factory: run has no picked team")
	ErrBadPick     = errors.New("factory: picks must be distinct offered sets")
	ErrNoSwap      = errors.New("factory: no swap available")
)

// Service runs the rental facility: drafting, round bookkeeping and the
// streak leaderboard. Battles themselves run elsewhere and come back in
// through ReportBattle.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	res    *resource.ResourceLoader
	cfg    config.FactoryConfig
	level  int
	logger *zap.Logger

	// seedFn supplies fresh run seeds. Tests pin it.
	seedFn func() int64
}

// NewService creates a factory Service. level is the flat battle level
// every rental is built at.
func NewService(db *gorm.DB, c cache.Cache, res *resource.ResourceLoader, cfg config.FactoryConfig, level int, logger *zap.Logger) *Service {
	if cfg.DraftSize <= 0 {
		cfg.DraftSize = 6
	}
	if cfg.TeamSize <= 0 {
		cfg.TeamSize = 3
	}
	if cfg.BattlesPerRound <= 0 {
		cfg.BattlesPerRound = 7
	}
	if level <= 0 {
		level = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     db,
		cache:  c,
		res:    res,
		cfg:    cfg,
		level:  level,
		logger: logger,
		seedFn: func() int64 { return time.Now().UnixNano() },
	}
}

// StartRun opens a fresh run for the trainer and deals the first draft.
// A trainer can only have one unfinished run at a time.
func (svc *Service) StartRun(ctx context.Context, accountID, trainerID int64) (*model.FactoryRun, error) {
	var existing model.FactoryRun
	err := svc.db.WithContext(ctx).
		Where("trainer_id = ? AND status IN ?", trainerID,
			[]string{model.RunStatusDrafting, model.RunStatusActive}).
		First(&existing).Error
	if err == nil {
		return nil, ErrRunActive
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("factory: query runs: %w", err)
	}

	seed := svc.seedFn()
	offers := svc.draft(draftStream(seed, 1), svc.res.Rentals)
	if len(offers) < svc.cfg.TeamSize {
		return nil, fmt.Errorf("factory: rental pool yielded only %d offers", len(offers))
	}

	run := &model.FactoryRun{
		AccountID: accountID,
		TrainerID: trainerID,
		Status:    model.RunStatusDrafting,
		Round:     1,
		Seed:      seed,
		Offers:    intsJSON(offers),
	}
	if err := svc.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("factory: create run: %w", err)
	}
	svc.db.WithContext(ctx).Model(&model.TrainerProfile{}).
		Where("id = ?", trainerID).
		UpdateColumn("total_runs", gorm.Expr("total_runs + 1"))

	svc.logger.Info("factory run started",
		zap.Int64("run_id", run.ID),
		zap.Int64("trainer_id", trainerID),
		zap.Ints("offers", offers))
	return run, nil
}

// PickTeam locks in the trainer's picks from the current draft. picks
// are rental set IDs and must be distinct members of the offer list.
func (svc *Service) PickTeam(ctx context.Context, runID, accountID int64, picks []int) (*model.FactoryRun, error) {
	run, err := svc.getOwned(ctx, runID, accountID)
	if err != nil {
		return nil, err
	}
	if run.Status != model.RunStatusDrafting {
		return nil, ErrNotDrafting
	}
	if len(picks) != svc.cfg.TeamSize {
		return nil, ErrBadPick
	}
	offered := make(map[int]bool, svc.cfg.DraftSize)
	for _, id := range jsonInts(run.Offers) {
		offered[id] = true
	}
	seen := make(map[int]bool, len(picks))
	for _, id := range picks {
		if !offered[id] || seen[id] {
			return nil, ErrBadPick
		}
		seen[id] = true
	}

	run.Team = intsJSON(picks)
	run.Status = model.RunStatusActive
	if err := svc.db.WithContext(ctx).Save(run).Error; err != nil {
		return nil, fmt.Errorf("factory: save run: %w", err)
	}
	svc.logger.Info("factory team picked",
		zap.Int64("run_id", run.ID),
		zap.Ints("team", picks))
	return run, nil
}

// GetRun returns the run if the account owns it.
func (svc *Service) GetRun(ctx context.Context, runID, accountID int64) (*model.FactoryRun, error) {
	return svc.getOwned(ctx, runID, accountID)
}

// RetireRun ends an unfinished run voluntarily, banking the streak. The
// run closes as cleared rather than lost.
func (svc *Service) RetireRun(ctx context.Context, runID, accountID int64) (*model.FactoryRun, error) {
	run, err := svc.getOwned(ctx, runID, accountID)
	if err != nil {
		return nil, err
	}
	if run.Status != model.RunStatusDrafting && run.Status != model.RunStatusActive {
		return nil, ErrRunOver
	}
	now := time.Now()
	run.Status = model.RunStatusCleared
	run.EndedAt = &now
	run.LastFoes = nil
	if err := svc.db.WithContext(ctx).Save(run).Error; err != nil {
		return nil, fmt.Errorf("factory: save run: %w", err)
	}
	svc.logger.Info("factory run retired",
		zap.Int64("run_id", run.ID),
		zap.Int("streak", run.Streak))
	return run, nil
}

// SwapMember trades one team member for one of the opponents just
// beaten. Only one swap is allowed per victory; starting the next
// battle forfeits it.
func (svc *Service) SwapMember(ctx context.Context, runID, accountID int64, give, take int) (*model.FactoryRun, error) {
	run, err := svc.getOwned(ctx, runID, accountID)
	if err != nil {
		return nil, err
	}
	if run.Status != model.RunStatusActive {
		return nil, ErrNoTeam
	}
	foes := jsonInts(run.LastFoes)
	if len(foes) == 0 {
		return nil, ErrNoSwap
	}
	if !containsInt(foes, take) {
		return nil, errors.New("factory: swap target was not on the beaten team")
	}
	team := jsonInts(run.Team)
	idx := -1
	for i, id := range team {
		if id == give {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.New("factory: swapped member is not on the team")
	}

	next := append([]int(nil), team...)
	next[idx] = take
	if err := svc.checkTeam(next); err != nil {
		return nil, err
	}

	run.Team = intsJSON(next)
	run.LastFoes = nil
	if err := svc.db.WithContext(ctx).Save(run).Error; err != nil {
		return nil, fmt.Errorf("factory: save run: %w", err)
	}
	svc.logger.Info("factory member swapped",
		zap.Int64("run_id", run.ID),
		zap.Int("give", give),
		zap.Int("take", take))
	return run, nil
}

func (svc *Service) getOwned(ctx context.Context, runID, accountID int64) (*model.FactoryRun, error) {
	var run model.FactoryRun
	err := svc.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", runID, accountID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("factory: query run: %w", err)
	}
	return &run, nil
}

// checkTeam rejects a team whose sets repeat a species or a held item.
func (svc *Service) checkTeam(ids []int) error {
	species := make(map[int]bool, len(ids))
	items := make(map[int]bool, len(ids))
	for _, id := range ids {
		set := svc.res.RentalByID(id)
		if set == nil {
			return fmt.Errorf("factory: unknown rental set %d", id)
		}
		if species[set.SpeciesID] {
			return errors.New("factory: team would repeat a species")
		}
		species[set.SpeciesID] = true
		if set.ItemID != 0 {
			if items[set.ItemID] {
				return errors.New("factory: team would repeat a held item")
			}
			items[set.ItemID] = true
		}
	}
	return nil
}

func intsJSON(ids []int) datatypes.JSON {
	data, _ := json.Marshal(ids)
	return datatypes.JSON(data)
}

func jsonInts(js datatypes.JSON) []int {
	if len(js) == 0 {
		return nil
	}
	var ids []int
	_ = json.Unmarshal(js, &ids)
	return ids
}

func containsInt(ids []int, want int) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
