// Package main is the traveller rules CLI. It exposes the dice, task check,
// world profile and jump calculators without a server or database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/observability"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds state shared by every subcommand.
type cli struct {
	seed     int64
	logLevel string

	// source overrides the seed when set.
	source dice.Source
	roller *dice.Roller
	logger *zap.Logger
}

// newRootCmd builds the command tree. A non-nil src replaces the random source.
func newRootCmd(src dice.Source) *cobra.Command {
	c := &cli{source: src}
	root := &cobra.Command{
		Use:   "traveller",
		Short: "Traveller rules calculator",
		Long: `traveller rolls dice, resolves task checks, decodes world and personality
profiles, and measures jumps between hexes using the same rules engine as the table server.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().Int64Var(&c.seed, "seed", 0, "seed for reproducible rolls (0 = cryptographic randomness)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		c.rollCmd(),
		c.checkCmd(),
		c.uwpCmd(),
		c.jumpCmd(),
		c.uppCmd(),
		c.modifierCmd(),
		c.sectorCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	logger, err := observability.NewLogger(config.LoggingConfig{Level: c.logLevel, Format: "console", Output: "stderr"}, "traveller")
	if err != nil {
		return err
	}
	c.logger = logger

	src := c.source
	switch {
	case src != nil:
	case c.seed != 0:
		src = dice.NewSeededSource(c.seed)
	default:
		src = dice.NewCryptoSource()
	}
	c.roller = dice.NewLoggedRoller(src, logger, nil)
	return nil
}

// parseModifiers reads trailing modifier arguments.
func parseModifiers(args []string) ([]dice.Modifier, error) {
	mods := make([]dice.Modifier, 0, len(args))
	for _, a := range args {
		m, err := dice.ParseModifier(a)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}
