package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/traveller/internal/frontend/telnet"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/characteristic"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/session"
	"github.com/cory-johannsen/traveller/internal/game/uwp"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

const timeLayout = "2006-01-02 15:04"

// RenderCampaigns formats the user's campaigns as a numbered list, marking
// the one at currentID.
func RenderCampaigns(list []campaign.Summary, currentID string) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Your campaigns:"))
	b.WriteString("\n")
	for i, c := range list {
		marker := " "
		if c.ID == currentID {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf(" %s%s%2d%s. %s%s%s  %s%s%s\n",
			marker, telnet.Green, i+1, telnet.Reset,
			telnet.BrightWhite, c.Name, telnet.Reset,
			telnet.Dim, c.Role, telnet.Reset))
	}
	return b.String()
}

// RenderMembers formats a campaign's members with their roles.
func RenderMembers(members []campaign.Member) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Members:"))
	b.WriteString("\n")
	for _, m := range members {
		status := ""
		if !m.Active {
			status = telnet.Colorize(telnet.Dim, " (inactive)")
		}
		b.WriteString(fmt.Sprintf("  %-20s %s%s\n", m.Username, roleColor(string(m.Role)), status))
	}
	return b.String()
}

func roleColor(role string) string {
	switch role {
	case "GAMEMASTER":
		return telnet.Colorize(telnet.BrightMagenta, role)
	case "PLAYER":
		return telnet.Colorize(telnet.BrightGreen, role)
	default:
		return telnet.Colorize(telnet.Cyan, role)
	}
}

// FormatCharacterSummary returns a one-line summary of a character for lists.
//
// Precondition: c must be non-nil.
// Postcondition: Returns a non-empty human-readable string.
func FormatCharacterSummary(c *character.Character) string {
	from := c.Species
	if c.Homeworld != "" {
		from += " of " + c.Homeworld
	}
	return fmt.Sprintf("%s%s%s  %s  %s, age %d",
		telnet.BrightWhite, c.Name, telnet.Reset,
		c.UPP(), from, c.Age)
}

// RenderCharacters lists characters numbered in order, marking those owned
// by userID and the one being played.
func RenderCharacters(list []*character.Character, userID, playingID string) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Characters:"))
	b.WriteString("\n")
	for i, c := range list {
		tag := ""
		switch {
		case c.ID == playingID:
			tag = telnet.Colorize(telnet.BrightGreen, " (playing)")
		case c.PlayerID == userID:
			tag = telnet.Colorize(telnet.Green, " (yours)")
		}
		b.WriteString(fmt.Sprintf("  %s%2d%s. %s%s\n", telnet.Green, i+1, telnet.Reset, FormatCharacterSummary(c), tag))
	}
	return b.String()
}

// FormatCharacterStats returns a multi-line sheet for the character.
//
// Precondition: c must be non-nil.
// Postcondition: Returns the six characteristics with their DMs, the derived
// damage thresholds and every skill.
func FormatCharacterStats(c *character.Character) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Name:     %s%s%s\n", telnet.BrightWhite, c.Name, telnet.Reset))
	home := c.Homeworld
	if home == "" {
		home = "-"
	}
	b.WriteString(fmt.Sprintf("  Species:  %s   Homeworld: %s   Age: %d\n", c.Species, home, c.Age))
	b.WriteString(fmt.Sprintf("  UPP:      %s%s%s\n", telnet.BrightYellow, c.UPP(), telnet.Reset))

	vals := c.Characteristics.Values()
	for i, name := range characteristic.Names() {
		dm, _ := c.CharacteristicDM(name)
		b.WriteString(fmt.Sprintf("  %s:%3d (%+d)", name, vals[i], dm))
		if i%3 == 2 {
			b.WriteString("\n")
		}
	}
	sec := c.Secondary()
	b.WriteString(fmt.Sprintf("  Damage thresholds: physical %d, mental %d\n", sec.PhysicalDamage, sec.MentalDamage))

	if len(c.Skills) == 0 {
		b.WriteString("  Skills:   none\n")
	} else {
		parts := make([]string, 0, len(c.Skills))
		for _, n := range c.SkillNames() {
			parts = append(parts, fmt.Sprintf("%s-%d", n, c.Skills[n]))
		}
		b.WriteString(fmt.Sprintf("  Skills:   %s\n", strings.Join(parts, ", ")))
	}
	b.WriteString(fmt.Sprintf("  Credits:  Cr%d\n", c.Credits))
	if c.Notes != "" {
		b.WriteString(fmt.Sprintf("  Notes:    %s\n", c.Notes))
	}
	return b.String()
}

// RenderRoll formats a recorded roll or task check made by who.
func RenderRoll(who string, rec *campaign.RollRecord) string {
	r := rec.Result
	label := ""
	if rec.Purpose != "" {
		label = " (" + rec.Purpose + ")"
	}
	line := fmt.Sprintf("%s rolls %s%s: %v", who, r.Notation, label, r.Individual)
	for _, m := range r.AppliedModifiers {
		if m.Value != 0 {
			line += fmt.Sprintf(" %s %+d", m.Name, m.Value)
		}
	}
	line += fmt.Sprintf(" = %d", r.FinalResult)
	if !rec.IsTaskCheck() {
		return telnet.Colorize(telnet.BrightCyan, line)
	}
	return telnet.Colorize(telnet.BrightCyan, line) + " " + outcome(*rec.Difficulty, *rec.Success, *rec.Effect)
}

func outcome(difficulty int, success bool, effect int) string {
	vs := fmt.Sprintf("vs %s (%d+): ", dice.DifficultyName(difficulty), difficulty)
	if success {
		return vs + telnet.Colorf(telnet.BrightGreen, "success, effect %+d", effect)
	}
	return vs + telnet.Colorf(telnet.BrightRed, "failure, effect %+d", effect)
}

// RenderFeed formats recent-roll feed entries, newest first.
func RenderFeed(entries []campaign.FeedEntry) string {
	if len(entries) == 0 {
		return telnet.Colorize(telnet.Dim, "No rolls yet at this table.")
	}
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Recent rolls:"))
	b.WriteString("\n")
	for _, e := range entries {
		who := e.Username
		if e.Character != "" {
			who = e.Character
		}
		purpose := ""
		if e.Purpose != "" {
			purpose = " (" + e.Purpose + ")"
		}
		b.WriteString(fmt.Sprintf("  %s%s%s %s %s%s %v = %d",
			telnet.Dim, e.At.UTC().Format(timeLayout), telnet.Reset,
			who, e.Notation, purpose, e.Individual, e.FinalResult))
		if e.Success != nil {
			b.WriteString(" " + outcome(e.Difficulty, *e.Success, e.Effect))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderProfile formats a decoded UWP with its trade classifications.
func RenderProfile(p uwp.Profile) string {
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.BrightYellow, "UWP %s", p.String()))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Starport:      %c (%s)\n", p.Starport, uwp.StarportQuality(p.Starport)))
	b.WriteString(fmt.Sprintf("  Size:          %d\n", p.Size))
	b.WriteString(fmt.Sprintf("  Atmosphere:    %d\n", p.Atmosphere))
	b.WriteString(fmt.Sprintf("  Hydrographics: %d\n", p.Hydrographics))
	b.WriteString(fmt.Sprintf("  Population:    %d\n", p.Population))
	b.WriteString(fmt.Sprintf("  Government:    %d\n", p.Government))
	b.WriteString(fmt.Sprintf("  Law level:     %d\n", p.LawLevel))
	b.WriteString(fmt.Sprintf("  Tech level:    %d\n", p.TechLevel))
	codes := uwp.TradeClassifications(p)
	if len(codes) == 0 {
		b.WriteString("  Trade codes:   none\n")
		return b.String()
	}
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%s (%s)", c, c.Description())
	}
	b.WriteString(fmt.Sprintf("  Trade codes:   %s\n", strings.Join(parts, ", ")))
	return b.String()
}

func formatSystem(s *world.StarSystem) string {
	codes := s.TradeCodes()
	tc := make([]string, len(codes))
	for i, c := range codes {
		tc[i] = string(c)
	}
	gg := " "
	if s.GasGiant {
		gg = "G"
	}
	return fmt.Sprintf("%s %s%-18s%s %s %-3s %s %s",
		s.Hex, telnet.BrightWhite, s.Name, telnet.Reset,
		s.UWP, strings.Join(s.Bases, ""), gg, strings.Join(tc, " "))
}

// RenderSystems formats a campaign's star systems grouped by sector.
func RenderSystems(systems []*world.StarSystem) string {
	if len(systems) == 0 {
		return telnet.Colorize(telnet.Dim, "No star systems on the map yet.")
	}
	var b strings.Builder
	sector := "\x00"
	for _, s := range systems {
		if s.Sector != sector {
			sector = s.Sector
			name := sector
			if name == "" {
				name = "Uncharted"
			}
			b.WriteString(telnet.Colorize(telnet.BrightYellow, name))
			b.WriteString("\n")
		}
		b.WriteString("  " + formatSystem(s) + "\n")
	}
	return b.String()
}

// RenderReachable formats the systems within jump range of hex.
func RenderReachable(hex string, jump int, list []world.Reachable) string {
	if len(list) == 0 {
		return telnet.Colorf(telnet.Dim, "No systems within jump-%d of %s.", jump, hex)
	}
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.BrightWhite, "Within jump-%d of %s:", jump, hex))
	b.WriteString("\n")
	for _, r := range list {
		b.WriteString(fmt.Sprintf("  J%d  %s\n", r.Distance, formatSystem(r.System)))
	}
	return b.String()
}

// RenderJump formats a jump distance, naming the systems at either end.
func RenderJump(from, to string, resp *campaign.JumpResponse) string {
	name := func(hex string, s *world.StarSystem) string {
		if s == nil {
			return hex
		}
		return fmt.Sprintf("%s (%s)", s.Name, hex)
	}
	return telnet.Colorf(telnet.BrightCyan, "%s to %s: %d parsecs (jump-%d)",
		name(from, resp.From), name(to, resp.To), resp.Distance, resp.Distance)
}

// RenderSessions formats scheduled play sessions.
func RenderSessions(list []*campaign.GameSession) string {
	if len(list) == 0 {
		return telnet.Colorize(telnet.Dim, "No sessions scheduled.")
	}
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Sessions:"))
	b.WriteString("\n")
	for _, s := range list {
		b.WriteString(fmt.Sprintf("  %s  %s\n", s.ScheduledAt.UTC().Format(timeLayout), s.Title))
	}
	return b.String()
}

// RenderPresence formats the users at a table.
func RenderPresence(campaignName string, table []session.Presence) string {
	var b strings.Builder
	b.WriteString(telnet.Colorf(telnet.BrightWhite, "At the %s table:", campaignName))
	b.WriteString("\n")
	for _, p := range table {
		if p.CharacterName != "" {
			b.WriteString(fmt.Sprintf("  %s as %s%s%s\n", p.Username, telnet.BrightWhite, p.CharacterName, telnet.Reset))
		} else {
			b.WriteString(fmt.Sprintf("  %s\n", p.Username))
		}
	}
	return b.String()
}
