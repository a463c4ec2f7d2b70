package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/traveller/internal/game/characteristic"
	"github.com/cory-johannsen/traveller/internal/game/dice"
)

func (c *cli) rollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roll <notation> [modifiers...]",
		Short: "Roll dice, e.g. 2d6+1 or 3d6 cover:-2",
		Long: `Roll dice written in NdS notation with an optional inline modifier (2d6+3).
Extra modifiers follow as "name:+n" or a bare signed number.

  Example: traveller roll 2d6 cover:-2 +1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mods, err := parseModifiers(args[1:])
			if err != nil {
				return err
			}
			result, err := c.roller.RollDice(strings.ToLower(args[0]), mods...)
			if err != nil {
				return err
			}
			writeRoll(cmd.OutOrStdout(), result)
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	// Modifiers such as -1 must not be read as flags.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (c *cli) checkCmd() *cobra.Command {
	var skill, value, dm int
	var unskilled bool
	cmd := &cobra.Command{
		Use:   "check [difficulty] [modifiers...]",
		Short: "Resolve a 2d6 task check",
		Long: `Roll 2d6 plus skill level and characteristic DM against a difficulty
(Simple, Easy, Routine, Average, Difficult, Very-Difficult, Formidable or a number).
The difficulty defaults to Average (8+).

  Example: traveller check --skill 1 --characteristic 10 difficult boon:+1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			difficulty := dice.DefaultDifficulty
			if len(args) > 0 && isDifficultyArg(args[0]) {
				d, ok := dice.ParseDifficulty(args[0])
				if !ok {
					return fmt.Errorf("unknown difficulty %q", args[0])
				}
				difficulty, args = d, args[1:]
			}
			mods, err := parseModifiers(args)
			if err != nil {
				return err
			}
			if unskilled {
				skill = -3
			}
			charDM := dm
			if cmd.Flags().Changed("characteristic") && !cmd.Flags().Changed("dm") {
				charDM = characteristic.Modifier(value)
			}
			result := c.roller.TaskCheck(skill, charDM, difficulty, mods...)

			out := cmd.OutOrStdout()
			writeRoll(out, result.RollResult)
			outcome := "failure"
			if result.Success {
				outcome = "success"
			}
			fmt.Fprintf(out, " vs %s: %s, effect %+d\n", describeDifficulty(difficulty), outcome, result.Effect)
			return nil
		},
	}
	cmd.Flags().IntVar(&skill, "skill", 0, "skill level")
	cmd.Flags().BoolVar(&unskilled, "unskilled", false, "apply the unskilled DM of -3")
	cmd.Flags().IntVar(&value, "characteristic", 0, "characteristic value; its DM is applied")
	cmd.Flags().IntVar(&dm, "dm", 0, "characteristic DM applied directly")
	cmd.MarkFlagsMutuallyExclusive("skill", "unskilled")
	cmd.MarkFlagsMutuallyExclusive("characteristic", "dm")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// isDifficultyArg reports whether arg reads as a difficulty rather than a modifier.
func isDifficultyArg(arg string) bool {
	return !strings.HasPrefix(arg, "+") && !strings.HasPrefix(arg, "-") && !strings.Contains(arg, ":")
}

// describeDifficulty renders "Average (8+)", or "9+" for an unnamed target.
func describeDifficulty(target int) string {
	name := dice.DifficultyName(target)
	if strings.HasSuffix(name, "+") {
		return name
	}
	return fmt.Sprintf("%s (%d+)", name, target)
}

// writeRoll prints "2d6: [3 4] cover -2 = 5", omitting zero modifiers.
func writeRoll(w io.Writer, r dice.RollResult) {
	fmt.Fprintf(w, "%s: %v", r.Notation, r.Individual)
	for _, m := range r.AppliedModifiers {
		if m.Value != 0 {
			fmt.Fprintf(w, " %s", m)
		}
	}
	fmt.Fprintf(w, " = %d", r.FinalResult)
}
