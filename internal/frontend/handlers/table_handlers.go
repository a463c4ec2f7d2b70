package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cory-johannsen/traveller/internal/frontend/telnet"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/command"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/uwp"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

// tableHandlerFunc is the signature for all table dispatch functions. A
// returned error ends the session; errQuit ends it cleanly.
type tableHandlerFunc func(h *TableHandler, tc *tableContext) error

// TableHandlers returns the map from Handler constant to table function.
// Exported so TestAllCommandHandlersAreWired can verify completeness.
func TableHandlers() map[string]tableHandlerFunc {
	return tableHandlerMap
}

// tableHandlerMap is the single source of truth for console command dispatch.
// To add a new command: add a Handler constant to commands.go AND add an entry here.
var tableHandlerMap = map[string]tableHandlerFunc{
	command.HandlerCampaigns:   (*TableHandler).handleCampaigns,
	command.HandlerNewCampaign: (*TableHandler).handleNewCampaign,
	command.HandlerUse:         (*TableHandler).handleUse,
	command.HandlerMembers:     (*TableHandler).handleMembers,
	command.HandlerInvite:      (*TableHandler).handleInvite,
	command.HandlerPromote:     (*TableHandler).handlePromote,
	command.HandlerSchedule:    (*TableHandler).handleSchedule,
	command.HandlerSessions:    (*TableHandler).handleSessions,
	command.HandlerChars:       (*TableHandler).handleChars,
	command.HandlerCreate:      (*TableHandler).handleCreate,
	command.HandlerPlay:        (*TableHandler).handlePlay,
	command.HandlerSheet:       (*TableHandler).handleSheet,
	command.HandlerTrain:       (*TableHandler).handleTrain,
	command.HandlerRoll:        (*TableHandler).handleRoll,
	command.HandlerCheck:       (*TableHandler).handleCheck,
	command.HandlerRecent:      (*TableHandler).handleRecent,
	command.HandlerUWP:         (*TableHandler).handleUWP,
	command.HandlerJump:        (*TableHandler).handleJump,
	command.HandlerNear:        (*TableHandler).handleNear,
	command.HandlerSystems:     (*TableHandler).handleSystems,
	command.HandlerAddSystem:   (*TableHandler).handleAddSystem,
	command.HandlerImport:      (*TableHandler).handleImport,
	command.HandlerSay:         (*TableHandler).handleSay,
	command.HandlerEmote:       (*TableHandler).handleEmote,
	command.HandlerWho:         (*TableHandler).handleWho,
	command.HandlerQuit:        (*TableHandler).handleQuit,
	command.HandlerHelp:        (*TableHandler).handleHelp,
}

// defaultRecent is how many feed entries 'recent' shows without an argument.
const defaultRecent = 10

func (h *TableHandler) handleCampaigns(tc *tableContext) error {
	list, err := h.svc.Campaigns(tc.ctx, tc.user.ID)
	if err != nil {
		return h.fail(tc, err)
	}
	if len(list) == 0 {
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Yellow,
			"You are not in any campaigns. Create one with 'newcampaign <name>'."))
		return nil
	}
	_ = tc.conn.WriteBlock(RenderCampaigns(list, tc.sess.CampaignID))
	return nil
}

func (h *TableHandler) handleNewCampaign(tc *tableContext) error {
	name := tc.parsed.Rest(0)
	if name == "" {
		return h.usage(tc)
	}
	c, err := h.svc.CreateCampaign(tc.ctx, campaign.CreateCampaignRequest{UserID: tc.user.ID, Name: name})
	if err != nil {
		return h.fail(tc, err)
	}
	_ = tc.conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "Campaign %s created. You are its gamemaster.", c.Name))
	return h.sit(tc, campaign.Summary{Campaign: *c, Role: permission.RoleGamemaster})
}

func (h *TableHandler) handleUse(tc *tableContext) error {
	arg := tc.parsed.Rest(0)
	if arg == "" {
		return h.usage(tc)
	}
	list, err := h.svc.Campaigns(tc.ctx, tc.user.ID)
	if err != nil {
		return h.fail(tc, err)
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(list) {
			_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, "Invalid selection. Type 'campaigns' to list yours."))
			return nil
		}
		return h.sit(tc, list[n-1])
	}
	for _, c := range list {
		if strings.EqualFold(c.Name, arg) || c.ID == arg {
			return h.sit(tc, c)
		}
	}
	_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "You have no campaign named %q. Type 'campaigns' to list yours.", arg))
	return nil
}

func (h *TableHandler) handleMembers(tc *tableContext) error {
	members, err := h.svc.Members(tc.ctx, tc.campaignReq())
	if err != nil {
		return h.fail(tc, err)
	}
	_ = tc.conn.WriteBlock(RenderMembers(members))
	return nil
}

func parseRole(tc *tableContext, s string) (permission.Role, bool) {
	role, ok := permission.ParseRole(s)
	if !ok {
		_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown role %q. Roles: GAMEMASTER, PLAYER, OBSERVER.", s))
	}
	return role, ok
}

func (h *TableHandler) handleInvite(tc *tableContext) error {
	if len(tc.parsed.Args) != 2 {
		return h.usage(tc)
	}
	role, ok := parseRole(tc, tc.parsed.Args[1])
	if !ok {
		return nil
	}
	m, err := h.svc.AddMember(tc.ctx, campaign.AddMemberRequest{
		UserID:     tc.user.ID,
		CampaignID: tc.sess.CampaignID,
		Username:   tc.parsed.Args[0],
		Role:       role,
	})
	if err != nil {
		return h.fail(tc, err)
	}
	h.announce(tc, telnet.Colorf(telnet.Green, "%s joins the campaign as %s.", m.Username, m.Role))
	return nil
}

func (h *TableHandler) handlePromote(tc *tableContext) error {
	if len(tc.parsed.Args) != 2 {
		return h.usage(tc)
	}
	role, ok := parseRole(tc, tc.parsed.Args[1])
	if !ok {
		return nil
	}
	members, err := h.svc.Members(tc.ctx, tc.campaignReq())
	if err != nil {
		return h.fail(tc, err)
	}
	var target *campaign.Member
	for i := range members {
		if strings.EqualFold(members[i].Username, tc.parsed.Args[0]) {
			target = &members[i]
			break
		}
	}
	if target == nil {
		_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "%s is not a member of this campaign.", tc.parsed.Args[0]))
		return nil
	}
	m, err := h.svc.SetMemberRole(tc.ctx, campaign.SetMemberRoleRequest{
		UserID:       tc.user.ID,
		CampaignID:   tc.sess.CampaignID,
		MemberUserID: target.UserID,
		Role:         role,
	})
	if err != nil {
		return h.fail(tc, err)
	}
	h.announce(tc, telnet.Colorf(telnet.Green, "%s is now %s.", target.Username, m.Role))
	return nil
}

func (h *TableHandler) handleSchedule(tc *tableContext) error {
	args := tc.parsed.Args
	if len(args) < 3 {
		return h.usage(tc)
	}
	at, err := time.ParseInLocation(timeLayout, args[0]+" "+args[1], time.UTC)
	if err != nil {
		_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "Cannot read %q as a date and time; use YYYY-MM-DD HH:MM.", args[0]+" "+args[1]))
		return nil
	}
	gs, err := h.svc.ScheduleSession(tc.ctx, campaign.ScheduleSessionRequest{
		UserID:      tc.user.ID,
		CampaignID:  tc.sess.CampaignID,
		Title:       tc.parsed.Rest(2),
		ScheduledAt: at,
	})
	if err != nil {
		return h.fail(tc, err)
	}
	h.announce(tc, telnet.Colorf(telnet.Green, "Session %q scheduled for %s UTC.", gs.Title, gs.ScheduledAt.UTC().Format(timeLayout)))
	return nil
}

func (h *TableHandler) handleSessions(tc *tableContext) error {
	list, err := h.svc.Sessions(tc.ctx, tc.campaignReq())
	if err != nil {
		return h.fail(tc, err)
	}
	_ = tc.conn.WriteBlock(RenderSessions(list))
	return nil
}

func (h *TableHandler) handleChars(tc *tableContext) error {
	list, err := h.svc.Characters(tc.ctx, tc.campaignReq())
	if err != nil {
		return h.fail(tc, err)
	}
	if len(list) == 0 {
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Yellow, "No characters yet. Make one with 'create'."))
		return nil
	}
	_ = tc.conn.WriteBlock(RenderCharacters(list, tc.user.ID, tc.sess.CharacterID))
	return nil
}

// findCharacter resolves arg, a list number or a name, among the table's characters.
//
// Postcondition: Returns (nil, nil) when no character matched; the user has been told.
func (h *TableHandler) findCharacter(tc *tableContext, arg string) (*character.Character, error) {
	list, err := h.svc.Characters(tc.ctx, tc.campaignReq())
	if err != nil {
		return nil, err
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(list) {
		return list[n-1], nil
	}
	for _, c := range list {
		if strings.EqualFold(c.Name, arg) {
			return c, nil
		}
	}
	_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "No character named %q at this table.", arg))
	return nil, nil
}

func (h *TableHandler) handlePlay(tc *tableContext) error {
	arg := tc.parsed.Rest(0)
	if arg == "" {
		return h.usage(tc)
	}
	c, err := h.findCharacter(tc, arg)
	if err != nil {
		return h.fail(tc, err)
	}
	if c == nil {
		return nil
	}
	if c.PlayerID != tc.user.ID && tc.role != permission.RoleGamemaster {
		_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "%s belongs to another player.", c.Name))
		return nil
	}
	return h.play(tc, c)
}

func (h *TableHandler) play(tc *tableContext, c *character.Character) error {
	if err := h.sessions.SetCharacter(tc.sess.ID, c.ID, c.Name); err != nil {
		return fmt.Errorf("setting character: %w", err)
	}
	_ = tc.conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "You are now playing %s (UPP %s).", c.Name, c.UPP()))
	return nil
}

func (h *TableHandler) handleSheet(tc *tableContext) error {
	var (
		c   *character.Character
		err error
	)
	if arg := tc.parsed.Rest(0); arg != "" {
		c, err = h.findCharacter(tc, arg)
	} else if tc.sess.CharacterID != "" {
		c, err = h.svc.Character(tc.ctx, campaign.CharacterRequest{UserID: tc.user.ID, CharacterID: tc.sess.CharacterID})
	} else {
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, "Name a character, or pick one with 'play <character>'."))
		return nil
	}
	if err != nil {
		return h.fail(tc, err)
	}
	if c == nil {
		return nil
	}
	_ = tc.conn.WriteBlock(FormatCharacterStats(c))
	return nil
}

// requireCharacter reports whether the session is playing a character,
// telling the user otherwise.
func requireCharacter(tc *tableContext) bool {
	if tc.sess.CharacterID == "" {
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, "Pick a character first with 'play <character>'."))
		return false
	}
	return true
}

func (h *TableHandler) handleTrain(tc *tableContext) error {
	args := tc.parsed.Args
	if len(args) < 2 {
		return h.usage(tc)
	}
	if !requireCharacter(tc) {
		return nil
	}
	level, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return h.usage(tc)
	}
	skill := strings.Join(args[:len(args)-1], " ")
	c, err := h.svc.UpdateCharacter(tc.ctx, campaign.UpdateCharacterRequest{
		UserID:      tc.user.ID,
		CharacterID: tc.sess.CharacterID,
		Skills:      map[string]int{skill: level},
	})
	if err != nil {
		return h.fail(tc, err)
	}
	if level < 0 {
		_ = tc.conn.WriteLine(telnet.Colorf(telnet.Green, "%s no longer has %s.", c.Name, character.NormalizeSkill(skill)))
		return nil
	}
	_ = tc.conn.WriteLine(telnet.Colorf(telnet.Green, "%s now has %s-%d.", c.Name, character.NormalizeSkill(skill), level))
	return nil
}

func parseModifiers(tc *tableContext, args []string) ([]dice.Modifier, bool) {
	mods := make([]dice.Modifier, 0, len(args))
	for _, a := range args {
		m, err := dice.ParseModifier(a)
		if err != nil {
			_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, err.Error()))
			return nil, false
		}
		mods = append(mods, m)
	}
	return mods, true
}

func (h *TableHandler) handleRoll(tc *tableContext) error {
	args := tc.parsed.Args
	if len(args) == 0 {
		return h.usage(tc)
	}
	mods, ok := parseModifiers(tc, args[1:])
	if !ok {
		return nil
	}
	rec, err := h.svc.RollDice(tc.ctx, campaign.RollDiceRequest{
		UserID:      tc.user.ID,
		Username:    tc.user.Username,
		CampaignID:  tc.sess.CampaignID,
		CharacterID: tc.sess.CharacterID,
		Notation:    strings.ToLower(args[0]),
		Modifiers:   mods,
	})
	if err != nil {
		return h.fail(tc, err)
	}
	h.announce(tc, RenderRoll(tc.actor(), rec))
	return nil
}

// isDifficultyArg reports whether a check argument names a difficulty rather
// than a modifier. Modifiers are signed or carry a name.
func isDifficultyArg(s string) bool {
	return !strings.HasPrefix(s, "+") && !strings.HasPrefix(s, "-") && !strings.Contains(s, ":")
}

func (h *TableHandler) handleCheck(tc *tableContext) error {
	args := tc.parsed.Args
	if len(args) < 2 {
		return h.usage(tc)
	}
	if !requireCharacter(tc) {
		return nil
	}
	skill, char := args[0], args[1]
	if skill == "-" {
		skill = ""
	}
	if char == "-" {
		char = ""
	}
	rest := args[2:]
	difficulty := 0
	if len(rest) > 0 && isDifficultyArg(rest[0]) {
		d, ok := dice.ParseDifficulty(rest[0])
		if !ok {
			_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown difficulty %q.", rest[0]))
			return nil
		}
		difficulty = d
		rest = rest[1:]
	}
	mods, ok := parseModifiers(tc, rest)
	if !ok {
		return nil
	}
	rec, err := h.svc.TaskCheck(tc.ctx, campaign.TaskCheckRequest{
		UserID:         tc.user.ID,
		Username:       tc.user.Username,
		CampaignID:     tc.sess.CampaignID,
		CharacterID:    tc.sess.CharacterID,
		Skill:          skill,
		Characteristic: char,
		Difficulty:     difficulty,
		Extra:          mods,
	})
	if err != nil {
		return h.fail(tc, err)
	}
	h.announce(tc, RenderRoll(tc.actor(), rec))
	return nil
}

func (h *TableHandler) handleRecent(tc *tableContext) error {
	n := defaultRecent
	if len(tc.parsed.Args) > 0 {
		v, err := strconv.Atoi(tc.parsed.Args[0])
		if err != nil || v < 1 {
			return h.usage(tc)
		}
		n = v
	}
	entries, err := h.svc.RecentRolls(tc.ctx, campaign.RecentRollsRequest{
		UserID:     tc.user.ID,
		CampaignID: tc.sess.CampaignID,
		Limit:      n,
	})
	if err != nil {
		return h.fail(tc, err)
	}
	_ = tc.conn.WriteBlock(RenderFeed(entries))
	return nil
}

func (h *TableHandler) handleUWP(tc *tableContext) error {
	if len(tc.parsed.Args) != 1 {
		return h.usage(tc)
	}
	p, err := uwp.Decode(strings.ToUpper(tc.parsed.Args[0]))
	if err != nil {
		return h.fail(tc, err)
	}
	_ = tc.conn.WriteBlock(RenderProfile(p))
	return nil
}

func (h *TableHandler) handleJump(tc *tableContext) error {
	args := tc.parsed.Args
	if len(args) != 2 {
		return h.usage(tc)
	}
	resp, err := h.svc.JumpDistance(tc.ctx, campaign.JumpRequest{
		UserID:     tc.user.ID,
		CampaignID: tc.sess.CampaignID,
		From:       args[0],
		To:         args[1],
	})
	if err != nil {
		return h.fail(tc, err)
	}
	_ = tc.conn.WriteLine(RenderJump(args[0], args[1], resp))
	return nil
}

// requireAtlas reports whether sector files are loaded, telling the user otherwise.
func (h *TableHandler) requireAtlas(tc *tableContext) bool {
	if h.atlas == nil || len(h.atlas.Sectors()) == 0 {
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, "No sectors are loaded."))
		return false
	}
	return true
}

func (h *TableHandler) handleNear(tc *tableContext) error {
	args := tc.parsed.Args
	if len(args) != 3 {
		return h.usage(tc)
	}
	jump, err := strconv.Atoi(args[2])
	if err != nil || jump < 0 {
		return h.usage(tc)
	}
	if !h.requireAtlas(tc) {
		return nil
	}
	list, err := h.atlas.Within(args[0], args[1], jump)
	if err != nil {
		return h.fail(tc, err)
	}
	_ = tc.conn.WriteBlock(RenderReachable(args[1], jump, list))
	return nil
}

func (h *TableHandler) handleSystems(tc *tableContext) error {
	list, err := h.svc.StarSystems(tc.ctx, tc.campaignReq())
	if err != nil {
		return h.fail(tc, err)
	}
	_ = tc.conn.WriteBlock(RenderSystems(list))
	return nil
}

func (h *TableHandler) handleAddSystem(tc *tableContext) error {
	args := tc.parsed.Args
	if len(args) < 4 {
		return h.usage(tc)
	}
	sys, err := h.svc.AddStarSystem(tc.ctx, campaign.AddStarSystemRequest{
		UserID:     tc.user.ID,
		CampaignID: tc.sess.CampaignID,
		System: world.StarSystem{
			Sector: args[0],
			Hex:    args[1],
			UWP:    args[2],
			Name:   tc.parsed.Rest(3),
		},
	})
	if err != nil {
		return h.fail(tc, err)
	}
	h.announce(tc, telnet.Colorf(telnet.Green, "%s charted at %s %s (%s).", sys.Name, sys.Sector, sys.Hex, sys.UWP))
	return nil
}

func (h *TableHandler) handleImport(tc *tableContext) error {
	name := tc.parsed.Rest(0)
	if name == "" {
		return h.usage(tc)
	}
	if !h.requireAtlas(tc) {
		return nil
	}
	sector, ok := h.atlas.Sector(name)
	if !ok {
		return h.fail(tc, fmt.Errorf("%w: %q", world.ErrSectorNotFound, name))
	}
	res, err := h.svc.ImportSector(tc.ctx, campaign.ImportSectorRequest{
		UserID:     tc.user.ID,
		CampaignID: tc.sess.CampaignID,
		Sector:     sector,
	})
	if err != nil {
		if res.Added > 0 {
			_ = tc.conn.WriteLine(telnet.Colorf(telnet.Yellow, "Imported %d systems before stopping.", res.Added))
		}
		return h.fail(tc, err)
	}
	h.announce(tc, telnet.Colorf(telnet.Green, "Imported %d systems from %s (%d already charted).", res.Added, sector.Name, res.Skipped))
	return nil
}

func (h *TableHandler) handleSay(tc *tableContext) error {
	if tc.parsed.RawArgs == "" {
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, "Say what?"))
		return nil
	}
	h.sessions.Broadcast(tc.sess.CampaignID, tc.sess.ID,
		telnet.Colorf(telnet.BrightWhite, "%s says: %s", tc.actor(), tc.parsed.RawArgs))
	_ = tc.conn.WriteLine(telnet.Colorf(telnet.BrightWhite, "You say: %s", tc.parsed.RawArgs))
	return nil
}

func (h *TableHandler) handleEmote(tc *tableContext) error {
	if tc.parsed.RawArgs == "" {
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, "Emote what?"))
		return nil
	}
	h.announce(tc, telnet.Colorf(telnet.Magenta, "%s %s", tc.actor(), tc.parsed.RawArgs))
	return nil
}

func (h *TableHandler) handleWho(tc *tableContext) error {
	_ = tc.conn.WriteBlock(RenderPresence(tc.sess.CampaignName, h.sessions.AtTable(tc.sess.CampaignID)))
	return nil
}

func (h *TableHandler) handleQuit(tc *tableContext) error {
	_ = tc.conn.WriteLine(telnet.Colorize(telnet.Cyan, "You leave the table. Safe travels. Goodbye."))
	return errQuit
}

func (h *TableHandler) handleHelp(tc *tableContext) error {
	h.showHelp(tc.conn)
	return nil
}
