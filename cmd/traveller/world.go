package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/traveller/internal/game/hexgrid"
	"github.com/cory-johannsen/traveller/internal/game/uwp"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

func (c *cli) uwpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uwp",
		Short: "Decode, encode and classify Universal World Profiles",
	}

	decode := &cobra.Command{
		Use:   "decode <uwp>",
		Short: "Show each field of a UWP such as A788899-C",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := uwp.Decode(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			writeProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}

	var p uwp.Profile
	var starport string
	encode := &cobra.Command{
		Use:   "encode",
		Short: "Build a UWP from its fields",
		Long: `Build a UWP from its fields.

  Example: traveller uwp encode --starport A --size 7 --atmosphere 8 --hydrographics 8 \
      --population 8 --government 9 --law 9 --tech 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(starport) != 1 {
				return fmt.Errorf("starport must be one of %s", uwp.Starports)
			}
			p.Starport = strings.ToUpper(starport)[0]
			s, err := uwp.Encode(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	encode.Flags().StringVar(&starport, "starport", "X", "starport class ("+uwp.Starports+")")
	encode.Flags().IntVar(&p.Size, "size", 0, "size digit")
	encode.Flags().IntVar(&p.Atmosphere, "atmosphere", 0, "atmosphere digit")
	encode.Flags().IntVar(&p.Hydrographics, "hydrographics", 0, "hydrographics digit")
	encode.Flags().IntVar(&p.Population, "population", 0, "population digit")
	encode.Flags().IntVar(&p.Government, "government", 0, "government digit")
	encode.Flags().IntVar(&p.LawLevel, "law", 0, "law level digit")
	encode.Flags().IntVar(&p.TechLevel, "tech", 0, "tech level")

	trade := &cobra.Command{
		Use:   "trade <uwp>",
		Short: "List the trade classifications of a world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := uwp.Decode(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			codes := uwp.TradeClassifications(p)
			out := cmd.OutOrStdout()
			if len(codes) == 0 {
				fmt.Fprintln(out, "no trade classifications")
				return nil
			}
			for _, code := range codes {
				fmt.Fprintf(out, "%-3s %s\n", code, code.Description())
			}
			return nil
		},
	}

	cmd.AddCommand(decode, encode, trade)
	return cmd
}

func writeProfile(w io.Writer, p uwp.Profile) {
	fmt.Fprintf(w, "UWP %s\n", p)
	fmt.Fprintf(w, "  Starport:      %c (%s)\n", p.Starport, uwp.StarportQuality(p.Starport))
	fmt.Fprintf(w, "  Size:          %d\n", p.Size)
	fmt.Fprintf(w, "  Atmosphere:    %d\n", p.Atmosphere)
	fmt.Fprintf(w, "  Hydrographics: %d\n", p.Hydrographics)
	fmt.Fprintf(w, "  Population:    %d\n", p.Population)
	fmt.Fprintf(w, "  Government:    %d\n", p.Government)
	fmt.Fprintf(w, "  Law level:     %d\n", p.LawLevel)
	fmt.Fprintf(w, "  Tech level:    %d\n", p.TechLevel)
	codes := uwp.TradeClassifications(p)
	names := make([]string, len(codes))
	for i, code := range codes {
		names[i] = string(code)
	}
	fmt.Fprintf(w, "  Trade codes:   %s\n", strings.Join(names, " "))
}

func (c *cli) jumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jump <from-hex> <to-hex>",
		Short: "Measure the jump distance between two hexes",
		Long: `Measure the distance in parsecs between two sector hexes written CCRR.

  Example: traveller jump 1910 2212`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := hexgrid.DistanceBetween(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s to %s: %d parsecs (jump-%d)\n", args[0], args[1], d, d)
			return nil
		},
	}
}

func (c *cli) sectorCmd() *cobra.Command {
	var dir, near string
	var jump int
	cmd := &cobra.Command{
		Use:   "sector [name]",
		Short: "List loaded sectors, or the systems of one sector",
		Long: `Load the sector YAML files in --dir. With no name, list the sectors.
With a name, list that sector's systems, or with --near those within --jump of a hex.

  Example: traveller sector Regina --near 1910 --jump 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sectors, err := world.LoadSectors(dir)
			if err != nil {
				return err
			}
			atlas, err := world.NewAtlas(sectors)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, s := range atlas.Sectors() {
					fmt.Fprintf(out, "%-24s %d systems\n", s.Name, len(s.Systems))
				}
				return nil
			}

			if near != "" {
				reach, err := atlas.Within(args[0], near, jump)
				if err != nil {
					return err
				}
				if len(reach) == 0 {
					fmt.Fprintf(out, "no systems within jump-%d of %s\n", jump, near)
					return nil
				}
				for _, r := range reach {
					fmt.Fprintf(out, "J%d  %s %-16s %s\n", r.Distance, r.System.Hex, r.System.Name, r.System.UWP)
				}
				return nil
			}

			s, ok := atlas.Sector(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", world.ErrSectorNotFound, args[0])
			}
			for _, sys := range s.Systems {
				fmt.Fprintf(out, "%s %-16s %s %s\n", sys.Hex, sys.Name, sys.UWP, strings.Join(sys.BaseNames(), ","))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "content/sectors", "directory of sector YAML files")
	cmd.Flags().StringVar(&near, "near", "", "origin hex for a jump range search")
	cmd.Flags().IntVar(&jump, "jump", 1, "jump rating for --near")
	return cmd
}
