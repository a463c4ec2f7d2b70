package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/traveller/internal/game/characteristic"
)

func (c *cli) uppCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upp <upp>",
		Short: "Decode a Universal Personality Profile such as 777A98",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chars, err := characteristic.ParseUPP(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			if err := characteristic.Validate(chars).Err(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			vals := chars.Values()
			for i, name := range characteristic.Names() {
				fmt.Fprintf(out, "%s: %2d (%+d)\n", name, vals[i], characteristic.Modifier(vals[i]))
			}
			sec := characteristic.DeriveSecondary(chars)
			fmt.Fprintf(out, "Damage thresholds: physical %d, mental %d\n", sec.PhysicalDamage, sec.MentalDamage)
			return nil
		},
	}
}

func (c *cli) modifierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modifier <value>",
		Short: "Show the dice modifier for a characteristic value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("characteristic value %q is not a number", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%+d\n", characteristic.Modifier(v))
			return nil
		},
	}
}
