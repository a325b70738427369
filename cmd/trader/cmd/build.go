package cmd

import (
	"fmt"
	"math/rand"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/oanda"
	"github.com/rustyeddy/papertrader/market/synthetic"
	"github.com/rustyeddy/papertrader/market/yahoo"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/rustyeddy/papertrader/strategy"
)

const defaultSyntheticPrice = 100.0

// walkVolatility is the per-step stddev of the random walk outcome model.
const walkVolatility = 0.001

func (a *app) source() (market.Source, error) {
	switch a.cfg.Source.Type {
	case config.SourceSynthetic:
		start := a.cfg.Source.StartPrice
		if start == 0 {
			start = defaultSyntheticPrice
		}
		return synthetic.New(a.cfg.Simulation.Seed, start), nil
	case config.SourceYahoo:
		timeout, err := a.cfg.SourceTimeout()
		if err != nil {
			return nil, err
		}
		c := yahoo.New(timeout)
		if a.cfg.Source.BaseURL != "" {
			c.BaseURL = a.cfg.Source.BaseURL
		}
		return c, nil
	case config.SourceOanda:
		timeout, err := a.cfg.SourceTimeout()
		if err != nil {
			return nil, err
		}
		c := oanda.New(a.cfg.Source.Token, timeout)
		if a.cfg.Source.BaseURL != "" {
			c.BaseURL = a.cfg.Source.BaseURL
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown source type %q", a.cfg.Source.Type)
}

// engine builds an inactive engine for pair using the configured policy.
func (a *app) engine(pair string, src market.Source) (*sim.Engine, error) {
	p, err := a.cfg.Policy()
	if err != nil {
		return nil, err
	}

	opts := []sim.Option{sim.WithLogger(a.log)}
	seed := a.cfg.Simulation.Seed
	if seed != 0 {
		opts = append(opts, sim.WithSeed(seed))
	}
	if a.cfg.Strategy.Direction == config.DirectionEMACross {
		var rng *rand.Rand
		if seed != 0 {
			rng = rand.New(rand.NewSource(seed + 2))
		}
		fast, slow := a.cfg.EMAPeriods()
		opts = append(opts, sim.WithDirectionModel(strategy.NewEMACross(fast, slow, strategy.NewMomentum(rng))))
	}
	if a.cfg.Strategy.Outcome == config.OutcomeRandomWalk {
		var rng *rand.Rand
		if seed != 0 {
			rng = rand.New(rand.NewSource(seed + 1))
		}
		opts = append(opts, sim.WithOutcomeModel(strategy.NewRandomWalk(rng, walkVolatility)))
	}

	return sim.NewEngine(sim.Account{
		ID:      a.cfg.Account.ID,
		Pair:    pair,
		Capital: a.cfg.Account.Capital,
	}, p, src, opts...)
}

// openDB opens the SQLite journal, or returns nil when none is configured.
func (a *app) openDB() (*journal.SQLite, error) {
	if a.cfg.Journal.DBPath == "" {
		return nil, nil
	}
	db, err := journal.NewSQLite(a.cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return db, nil
}
