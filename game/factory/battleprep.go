package factory

import (
	"context"
	"fmt"

	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/resource"
)

// Prepared bundles everything the session runner needs to start the
// run's next battle. PrepSeed is the stream state the whole prep was
// dealt from; a record carrying it can be rebuilt and re-simulated.
type Prepared struct {
	Run        *model.FactoryRun
	Seed       uint32
	PrepSeed   uint32
	Player     []*battle.Pokemon
	PlayerSets []int
	Foe        []*battle.Pokemon
	FoeTrainer string
	FoeSets    []int
}

// PrepareBattle builds both parties for the run's next battle. The same
// run row always prepares the same battle, so a client that dropped can
// reconnect and get an identical matchup. Preparing forfeits any
// pending swap.
func (svc *Service) PrepareBattle(ctx context.Context, runID, accountID int64) (*Prepared, error) {
	run, err := svc.getOwned(ctx, runID, accountID)
	if err != nil {
		return nil, err
	}
	if run.Status != model.RunStatusActive {
		return nil, ErrNoTeam
	}

	prepSeed := battleStream(run.Seed, run.Round, run.BattleNum).Seed()
	playerSets := jsonInts(run.Team)
	dealt, err := svc.dealBattle(prepSeed, playerSets, run.Round)
	if err != nil {
		return nil, err
	}

	if len(run.LastFoes) > 0 {
		run.LastFoes = nil
		if err := svc.db.WithContext(ctx).Save(run).Error; err != nil {
			return nil, fmt.Errorf("factory: save run: %w", err)
		}
	}

	return &Prepared{
		Run:        run,
		Seed:       dealt.seed,
		PrepSeed:   prepSeed,
		Player:     dealt.player,
		PlayerSets: playerSets,
		Foe:        dealt.foe,
		FoeTrainer: dealt.trainer,
		FoeSets:    dealt.foeSets,
	}, nil
}

type dealtBattle struct {
	seed    uint32
	player  []*battle.Pokemon
	foe     []*battle.Pokemon
	trainer string
	foeSets []int
}

// dealBattle derives the complete matchup from one stream state: the
// opposing trainer, their drafted sets, both built teams and the
// battle seed. Everything downstream of prepSeed is deterministic.
func (svc *Service) dealBattle(prepSeed uint32, playerSets []int, round int) (*dealtBattle, error) {
	if len(svc.res.Trainers) == 0 {
		return nil, fmt.Errorf("factory: no trainers loaded")
	}
	rng := battle.NewRNG(prepSeed)

	tr := svc.res.Trainers[rng.Intn(len(svc.res.Trainers))]
	pool := make([]*resource.RentalSet, 0, len(tr.SetIDs))
	for _, id := range tr.SetIDs {
		if set := svc.res.RentalByID(id); set != nil {
			pool = append(pool, set)
		}
	}
	foeSets := svc.draftN(rng, pool, svc.cfg.TeamSize)
	if len(foeSets) < svc.cfg.TeamSize {
		return nil, fmt.Errorf("factory: trainer %d pool yielded only %d sets", tr.ID, len(foeSets))
	}

	iv := rentalIV(round)
	player, err := svc.buildTeam(playerSets, iv, rng)
	if err != nil {
		return nil, err
	}
	foe, err := svc.buildTeam(foeSets, iv, rng)
	if err != nil {
		return nil, err
	}

	seed := rng.Seed()
	if seed == 0 {
		seed = 1
	}

	return &dealtBattle{
		seed:    seed,
		player:  player,
		foe:     foe,
		trainer: fmt.Sprintf("%s %s", tr.Class, tr.Name),
		foeSets: foeSets,
	}, nil
}

// stream returns the run's generator advanced n steps. Drafts and
// battles pull from fixed offsets so the same run row always deals the
// same draft and seeds the same battle.
func stream(seed int64, n int) *battle.RNG {
	rng := battle.NewRNG(uint32(seed))
	for i := 0; i < n; i++ {
		rng.Next()
	}
	return rng
}

func draftStream(seed int64, round int) *battle.RNG {
	return stream(seed, round*64)
}

func battleStream(seed int64, round, num int) *battle.RNG {
	return stream(seed, round*64+num+1)
}

// draft deals a full-size offer list from the whole rental pool.
func (svc *Service) draft(rng *battle.RNG, pool []*resource.RentalSet) []int {
	return svc.draftN(rng, pool, svc.cfg.DraftSize)
}

// draftN walks the pool in seeded order and takes the first n sets that
// repeat neither a species nor a held item.
func (svc *Service) draftN(rng *battle.RNG, pool []*resource.RentalSet, n int) []int {
	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	picked := make([]int, 0, n)
	species := make(map[int]bool, n)
	items := make(map[int]bool, n)
	for _, idx := range order {
		set := pool[idx]
		if set == nil || species[set.SpeciesID] {
			continue
		}
		if set.ItemID != 0 && items[set.ItemID] {
			continue
		}
		picked = append(picked, set.ID)
		species[set.SpeciesID] = true
		if set.ItemID != 0 {
			items[set.ItemID] = true
		}
		if len(picked) == n {
			break
		}
	}
	return picked
}

// buildTeam turns rental set IDs into battle-ready monsters at the
// given IV tier. Genders roll on the stream, so a rebuilt team matches
// the original exactly.
func (svc *Service) buildTeam(ids []int, iv int, rng *battle.RNG) ([]*battle.Pokemon, error) {
	team := make([]*battle.Pokemon, 0, len(ids))
	for _, id := range ids {
		set := svc.res.RentalByID(id)
		if set == nil {
			return nil, fmt.Errorf("factory: unknown rental set %d", id)
		}
		sp := svc.res.SpeciesByID(set.SpeciesID)
		if sp == nil {
			return nil, fmt.Errorf("factory: rental set %d: unknown species %d", id, set.SpeciesID)
		}
		moves := make([]*resource.Move, 0, len(set.Moves))
		for _, mid := range set.Moves {
			if mid == 0 {
				continue
			}
			mv := svc.res.MoveByID(mid)
			if mv == nil {
				return nil, fmt.Errorf("factory: rental set %d: unknown move %d", id, mid)
			}
			moves = append(moves, mv)
		}
		team = append(team, battle.NewPokemon(sp, set, moves, svc.level, iv, rollGender(sp, rng)))
	}
	return team, nil
}

// rollGender picks a gender from the species ratio (percent female,
// negative for genderless).
func rollGender(sp *resource.Species, rng *battle.RNG) battle.Gender {
	ratio := sp.GenderRatio
	switch {
	case ratio < 0:
		return battle.GenderGenderless
	case ratio == 0:
		return battle.GenderMale
	case ratio >= 100:
		return battle.GenderFemale
	}
	if rng.Percent(ratio) {
		return battle.GenderFemale
	}
	return battle.GenderMale
}

// rentalIV is the per-stat IV at the given round. The tier starts low
// and climbs four points a round, capped at the stat maximum.
func rentalIV(round int) int {
	if round < 1 {
		round = 1
	}
	iv := 3 + 4*(round-1)
	if iv > 31 {
		iv = 31
	}
	return iv
}
