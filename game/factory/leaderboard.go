package factory

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/nanakusa/frontier/model"
)

const leaderboardKey = "leaderboard:streak"
const leaderboardTop = 100

// LeaderboardEntry is one row of the streak board.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	TrainerID   int64  `json:"trainer_id"`
	TrainerName string `json:"trainer_name"`
	BestStreak  int    `json:"best_streak"`
	Wins        int    `json:"wins"`
}

// TopStreaks returns the best streaks, preferring the cached sorted set
// and falling back to the profiles table.
func (svc *Service) TopStreaks(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > leaderboardTop {
		limit = 20
	}

	members, err := svc.cache.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1))
	if err == nil && len(members) > 0 {
		entries := make([]LeaderboardEntry, 0, len(members))
		for i, m := range members {
			id, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				continue
			}
			score, _ := svc.cache.ZScore(ctx, leaderboardKey, m)
			entries = append(entries, LeaderboardEntry{
				Rank:       i + 1,
				TrainerID:  id,
				BestStreak: int(score),
			})
		}
		svc.enrichNames(ctx, entries)
		return entries, nil
	}

	// Fall back to the profiles table.
	var profs []model.TrainerProfile
	if err := svc.db.WithContext(ctx).
		Select("id, name, best_streak, wins").
		Where("best_streak > 0").
		Order("best_streak DESC").
		Limit(limit).
		Find(&profs).Error; err != nil {
		return nil, fmt.Errorf("factory: query leaderboard: %w", err)
	}
	entries := make([]LeaderboardEntry, len(profs))
	for i, p := range profs {
		entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			TrainerID:   p.ID,
			TrainerName: p.Name,
			BestStreak:  p.BestStreak,
			Wins:        p.Wins,
		}
		// Refresh cache entry.
		_ = svc.cache.ZAdd(ctx, leaderboardKey, float64(p.BestStreak), strconv.FormatInt(p.ID, 10))
	}
	return entries, nil
}

// RefreshLeaderboard rebuilds the sorted set from the profiles table.
// The scheduler calls this periodically; admins can force it.
func (svc *Service) RefreshLeaderboard(ctx context.Context) (int, error) {
	var profs []model.TrainerProfile
	if err := svc.db.WithContext(ctx).
		Select("id, best_streak").
		Where("best_streak > 0").
		Order("best_streak DESC").
		Limit(leaderboardTop).
		Find(&profs).Error; err != nil {
		return 0, fmt.Errorf("factory: query leaderboard: %w", err)
	}
	for _, p := range profs {
		_ = svc.cache.ZAdd(ctx, leaderboardKey, float64(p.BestStreak), strconv.FormatInt(p.ID, 10))
	}
	return len(profs), nil
}

func (svc *Service) pushStreak(ctx context.Context, trainerID int64, streak int) {
	member := strconv.FormatInt(trainerID, 10)
	if err := svc.cache.ZAdd(ctx, leaderboardKey, float64(streak), member); err != nil {
		svc.logger.Warn("leaderboard push failed", zap.Error(err))
	}
}

func (svc *Service) enrichNames(ctx context.Context, entries []LeaderboardEntry) {
	if len(entries) == 0 {
		return
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.TrainerID
	}
	var profs []model.TrainerProfile
	svc.db.WithContext(ctx).
		Select("id, name, best_streak, wins").
		Where("id IN ?", ids).
		Find(&profs)
	byID := make(map[int64]model.TrainerProfile, len(profs))
	for _, p := range profs {
		byID[p.ID] = p
	}
	for i := range entries {
		if p, ok := byID[entries[i].TrainerID]; ok {
			entries[i].TrainerName = p.Name
			entries[i].BestStreak = p.BestStreak
			entries[i].Wins = p.Wins
		}
	}
}
