package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"fireworks/application"
	"fireworks/domain/entities"
	"fireworks/engine"
	"fireworks/infrastructure"
	"fireworks/repository/memory"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	simulatedUser = "simulator"
	simulateStep  = 16 * time.Millisecond
)

type simulateOptions struct {
	duration  time.Duration
	clickRate float64
	seed      uint64
	autoBuy   bool
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a headless session against an in-memory ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.duration <= 0 {
				return fmt.Errorf("duration must be positive")
			}
			if opts.clickRate < 0 {
				return fmt.Errorf("click rate cannot be negative")
			}
			return simulate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Minute, "simulated play time")
	cmd.Flags().Float64Var(&opts.clickRate, "click-rate", 1, "manual clicks per second on live targets")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&opts.autoBuy, "auto-buy", true, "buy the cheapest affordable upgrade every second")
	return cmd
}

// simulation counts what the engine reported
type simulation struct {
	spawned int
	removed map[engine.RemoveReason]int
	golden  int
	lucky   int
	dropped int
}

func (s *simulation) OnEvent(event engine.Event) {
	switch event.Kind {
	case engine.EventSpawn:
		s.spawned++
	case engine.EventRemove:
		s.removed[event.Reason]++
	case engine.EventReward:
		if event.Reward.Golden {
			s.golden++
		}
		if event.Reward.Lucky {
			s.lucky++
		}
	}
}

func simulate(ctx context.Context, out io.Writer, opts simulateOptions) error {
	store := memory.NewStore()
	bus := infrastructure.NewLocalEventBus(nil)
	economy := application.NewEconomy(infrastructure.NewUnitOfWorkFactory(store, bus), store, nil, nil)
	defer bus.Wait()

	player := entities.Session{UserID: simulatedUser}
	if _, _, err := economy.SignUp(ctx, player); err != nil {
		return fmt.Errorf("failed to create simulated account: %w", err)
	}

	stats := &simulation{removed: make(map[engine.RemoveReason]int)}
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	// Rewards are credited inline; the simulation owns the only engine
	sink := engine.RewardSinkFunc(func(reward entities.RewardEvent) {
		if _, err := economy.Credit(ctx, reward); err != nil {
			stats.dropped++
			log.WithError(err).Warn("Simulated reward was not credited")
		}
	})
	e := engine.New(rng, sink, stats)
	e.SetSession(player)
	e.Resize(1280, 720)

	var clickBudget float64
	var sinceBuy time.Duration
	for elapsed := time.Duration(0); elapsed < opts.duration; elapsed += simulateStep {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.Tick(simulateStep)

		clickBudget += opts.clickRate * simulateStep.Seconds()
		for ; clickBudget >= 1; clickBudget-- {
			targets := e.Targets()
			if len(targets) == 0 {
				clickBudget = 0
				break
			}
			t := targets[rng.IntN(len(targets))]
			e.Click(t.X, t.Y)
		}

		sinceBuy += simulateStep
		if opts.autoBuy && sinceBuy >= time.Second {
			sinceBuy = 0
			account, err := buyCheapest(ctx, economy, player)
			if err != nil {
				return err
			}
			e.SetLevels(engine.LevelsFor(account))
		}
	}

	account, err := economy.Account(ctx, player)
	if err != nil {
		return err
	}
	printSimulation(out, opts, account, stats)
	return nil
}

// buyCheapest buys the cheapest affordable upgrade, if any, and returns the account
func buyCheapest(ctx context.Context, economy *application.Economy, player entities.Session) (*entities.Account, error) {
	account, err := economy.Account(ctx, player)
	if err != nil {
		return nil, err
	}

	var best entities.UpgradeKind
	var bestCost int64
	for _, kind := range entities.UpgradeKinds {
		cost, ok := kind.Cost(account.Level(kind))
		if !ok || cost > account.Balance {
			continue
		}
		if best == "" || cost < bestCost {
			best, bestCost = kind, cost
		}
	}
	if best == "" {
		return account, nil
	}

	bought, err := economy.PurchaseUpgrade(ctx, player, best, account.Level(best))
	if errors.Is(err, entities.ErrInsufficientBalance) || errors.Is(err, entities.ErrLevelMaxed) {
		return account, nil
	}
	return bought, err
}

func printSimulation(out io.Writer, opts simulateOptions, account *entities.Account, stats *simulation) {
	fmt.Fprintf(out, "Simulated %s (seed %d, %.2f clicks/s)\n", opts.duration, opts.seed, opts.clickRate)
	fmt.Fprintf(out, "Balance:       %s (%d)\n", entities.FormatShortNotation(account.Balance), account.Balance)
	fmt.Fprintf(out, "Total earned:  %s\n", entities.FormatShortNotation(account.TotalEarnedAllTime))
	fmt.Fprintf(out, "Spawned:       %d\n", stats.spawned)
	fmt.Fprintf(out, "Hit:           %d\n", stats.removed[engine.RemoveHit])
	fmt.Fprintf(out, "Auto-clicked:  %d\n", stats.removed[engine.RemoveAuto])
	fmt.Fprintf(out, "Expired:       %d\n", stats.removed[engine.RemoveExpired])
	fmt.Fprintf(out, "Golden/lucky:  %d/%d\n", stats.golden, stats.lucky)
	if stats.dropped > 0 {
		fmt.Fprintf(out, "Not credited:  %d\n", stats.dropped)
	}
	fmt.Fprintln(out, "Upgrades:")
	for _, kind := range entities.UpgradeKinds {
		fmt.Fprintf(out, "  %-18s %d\n", kind, account.Level(kind))
	}
}
