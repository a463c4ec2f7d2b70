package handlers

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/traveller/internal/frontend/telnet"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/characteristic"
)

// RandomNames is a list of Third Imperium flavoured character names suitable
// for random selection during character creation. All names are 2-32
// characters and are not equal to "cancel" or "random" (case-insensitive).
var RandomNames = []string{
	"Kiefer Aaltonen", "Yasmin Okonkwo", "Dace Harrow", "Marika Venn", "Oskar Lindqvist",
	"Tamsin Reyes", "Ilse Marchetti", "Jonah Vask", "Arkady Brel", "Sunniva Holt",
	"Ranulf Ketch", "Priya Desai", "Eamon Stroud", "Lisette Ngata", "Corin Pashe",
	"Hollis Graymark", "Anya Volkov", "Bram Calloway", "Neve Adebayo", "Torsten Kane",
}

// errCancelled is returned by wizard prompts when the player types 'cancel'.
var errCancelled = errors.New("cancelled")

// IsRandomInput reports whether the player's input at a wizard step requests random selection.
// Blank input, "r", and "random" (all case-insensitive) are treated as random.
// Exported for testing.
func IsRandomInput(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return lower == "" || lower == "r" || lower == "random"
}

// ParseCharacteristics reads the characteristics step of the creation wizard.
// Blank input or "roll" means roll them (nil result); a six-digit UPP such as
// "777A98" or six numbers such as "7 7 7 10 9 8" assign them.
// Exported for testing.
//
// Postcondition: A non-nil result passes characteristic.Validate.
func ParseCharacteristics(s string) (*characteristic.Characteristics, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "roll") {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
	var c characteristic.Characteristics
	switch len(fields) {
	case 1:
		parsed, err := characteristic.ParseUPP(strings.ToUpper(fields[0]))
		if err != nil {
			return nil, err
		}
		c = parsed
	case characteristic.Count:
		var vals [characteristic.Count]int
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("characteristic %q is not a number", f)
			}
			vals[i] = v
		}
		c = characteristic.FromValues(vals)
	default:
		return nil, fmt.Errorf("enter a UPP like 777A98 or six numbers, not %d values", len(fields))
	}
	if err := characteristic.Validate(c).Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseSkills reads a skill list such as "Pilot-1, Vacc Suit-0". A skill
// without a numeric level ("Jack-of-all-Trades") is level 0. Blank input
// means no skills.
// Exported for testing.
func ParseSkills(s string) (map[string]int, error) {
	skills := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, level := part, 0
		if i := strings.LastIndexByte(part, '-'); i >= 0 {
			if v, err := strconv.Atoi(strings.TrimSpace(part[i+1:])); err == nil {
				name, level = strings.TrimSpace(part[:i]), v
			}
		}
		if name == "" {
			return nil, fmt.Errorf("skill %q has no name", part)
		}
		skills[character.NormalizeSkill(name)] = level
	}
	return skills, nil
}

// ask writes question and reads one trimmed line.
//
// Postcondition: Returns errCancelled when the player typed 'cancel'.
func ask(tc *tableContext, question string) (string, error) {
	_ = tc.conn.WritePrompt(telnet.Colorize(telnet.BrightWhite, question))
	line, err := tc.conn.ReadLine()
	if err != nil {
		return "", fmt.Errorf("reading wizard input: %w", err)
	}
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "cancel") {
		return "", errCancelled
	}
	return line, nil
}

// handleCreate runs the character creation wizard at the current table and
// starts playing the new character.
//
// Precondition: The session is seated at a campaign.
// Postcondition: On confirm the character is stored and selected; on cancel nothing changes.
func (h *TableHandler) handleCreate(tc *tableContext) error {
	req, err := h.creationWizard(tc)
	if errors.Is(err, errCancelled) {
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Yellow, "Character creation cancelled."))
		return nil
	}
	if err != nil || req == nil {
		return err
	}

	resp, err := h.svc.CreateCharacter(tc.ctx, *req)
	if err != nil {
		return h.fail(tc, err)
	}
	c := resp.Character
	h.logger.Info("character created at table",
		zap.String("conn_id", tc.sess.ID),
		zap.String("campaign_id", tc.sess.CampaignID),
		zap.String("character_id", c.ID),
	)
	if len(resp.Rolls) > 0 {
		var b strings.Builder
		b.WriteString(telnet.Colorize(telnet.BrightYellow, "Characteristic rolls:"))
		b.WriteString("\n")
		names := characteristic.Names()
		for i, r := range resp.Rolls {
			if i < len(names) {
				fmt.Fprintf(&b, "  %s  %v = %d\n", names[i], r.Individual, r.FinalResult)
			}
		}
		_ = tc.conn.WriteBlock(b.String())
	}
	_ = tc.conn.WriteBlock(FormatCharacterStats(c))
	h.sessions.Broadcast(tc.sess.CampaignID, tc.sess.ID,
		telnet.Colorf(telnet.Green, "%s introduces a new traveller: %s.", tc.user.Username, c.Name))
	return h.play(tc, c)
}

// creationWizard asks for each creation step and returns the request to
// submit.
//
// Postcondition: Returns errCancelled when the player cancels or declines the preview.
func (h *TableHandler) creationWizard(tc *tableContext) (*campaign.CreateCharacterRequest, error) {
	_ = tc.conn.WriteLine(telnet.Colorize(telnet.BrightCyan, "=== Character Creation ==="))
	_ = tc.conn.WriteLine("Type 'cancel' at any prompt to stop.")

	req := &campaign.CreateCharacterRequest{UserID: tc.user.ID, CampaignID: tc.sess.CampaignID}

	name, err := ask(tc, "Name (or 'random'): ")
	if err != nil {
		return nil, err
	}
	if IsRandomInput(name) {
		name = RandomNames[rand.Intn(len(RandomNames))]
		_ = tc.conn.WriteLine(telnet.Colorf(telnet.Cyan, "Random name selected: %s", name))
	}
	req.Name = name

	if req.Species, err = ask(tc, fmt.Sprintf("Species [%s]: ", character.DefaultSpecies)); err != nil {
		return nil, err
	}
	if req.Homeworld, err = ask(tc, "Homeworld: "); err != nil {
		return nil, err
	}

	for {
		line, err := ask(tc, fmt.Sprintf("Age [%d]: ", character.DefaultStartingAge))
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		age, convErr := strconv.Atoi(line)
		if convErr == nil && age > 0 {
			req.Age = age
			break
		}
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, "Age must be a positive number."))
	}

	for {
		line, err := ask(tc, "Characteristics: 'roll', a UPP like 777A98, or six numbers [roll]: ")
		if err != nil {
			return nil, err
		}
		chars, parseErr := ParseCharacteristics(line)
		if parseErr == nil {
			req.Characteristics = chars
			break
		}
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, parseErr.Error()))
	}

	for {
		line, err := ask(tc, "Skills, e.g. 'Pilot-1, Vacc Suit-0' [none]: ")
		if err != nil {
			return nil, err
		}
		skills, parseErr := ParseSkills(line)
		if parseErr == nil {
			req.Skills = skills
			break
		}
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, parseErr.Error()))
	}

	_ = tc.conn.WriteBlock(FormatCreationPreview(req))
	confirm, err := ask(tc, "Create this character? [y/N]: ")
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(confirm, "y") && !strings.EqualFold(confirm, "yes") {
		return nil, errCancelled
	}
	return req, nil
}

// FormatCreationPreview renders the wizard's answers before confirmation.
// Exported for testing.
func FormatCreationPreview(req *campaign.CreateCharacterRequest) string {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightCyan, "--- Character Preview ---"))
	b.WriteString("\n")
	species := req.Species
	if species == "" {
		species = character.DefaultSpecies
	}
	age := req.Age
	if age == 0 {
		age = character.DefaultStartingAge
	}
	fmt.Fprintf(&b, "  Name:      %s\n", telnet.Colorize(telnet.BrightWhite, req.Name))
	fmt.Fprintf(&b, "  Species:   %s   Age: %d\n", species, age)
	if req.Homeworld != "" {
		fmt.Fprintf(&b, "  Homeworld: %s\n", req.Homeworld)
	}
	if req.Characteristics == nil {
		b.WriteString("  UPP:       rolled on creation\n")
	} else if upp, err := req.Characteristics.UPP(); err == nil {
		fmt.Fprintf(&b, "  UPP:       %s\n", upp)
	}
	if len(req.Skills) == 0 {
		b.WriteString("  Skills:    none\n")
	} else {
		c := &character.Character{Skills: req.Skills}
		parts := make([]string, 0, len(req.Skills))
		for _, name := range c.SkillNames() {
			parts = append(parts, fmt.Sprintf("%s-%d", name, req.Skills[name]))
		}
		fmt.Fprintf(&b, "  Skills:    %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}
