package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cory-johannsen/traveller/internal/config"
	"github.com/cory-johannsen/traveller/internal/frontend/telnet"
	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/command"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/hexgrid"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/session"
	"github.com/cory-johannsen/traveller/internal/game/uwp"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

// CampaignService defines the campaign operations the table console drives.
type CampaignService interface {
	Campaigns(ctx context.Context, userID string) ([]campaign.Summary, error)
	CreateCampaign(ctx context.Context, req campaign.CreateCampaignRequest) (*campaign.Campaign, error)
	AddMember(ctx context.Context, req campaign.AddMemberRequest) (*campaign.Member, error)
	SetMemberRole(ctx context.Context, req campaign.SetMemberRoleRequest) (*campaign.Member, error)
	Members(ctx context.Context, req campaign.CampaignRequest) ([]campaign.Member, error)
	CreateCharacter(ctx context.Context, req campaign.CreateCharacterRequest) (*campaign.CreateCharacterResponse, error)
	UpdateCharacter(ctx context.Context, req campaign.UpdateCharacterRequest) (*character.Character, error)
	Character(ctx context.Context, req campaign.CharacterRequest) (*character.Character, error)
	Characters(ctx context.Context, req campaign.CampaignRequest) ([]*character.Character, error)
	AddStarSystem(ctx context.Context, req campaign.AddStarSystemRequest) (*world.StarSystem, error)
	ImportSector(ctx context.Context, req campaign.ImportSectorRequest) (campaign.ImportResult, error)
	StarSystems(ctx context.Context, req campaign.CampaignRequest) ([]*world.StarSystem, error)
	ScheduleSession(ctx context.Context, req campaign.ScheduleSessionRequest) (*campaign.GameSession, error)
	Sessions(ctx context.Context, req campaign.CampaignRequest) ([]*campaign.GameSession, error)
	RollDice(ctx context.Context, req campaign.RollDiceRequest) (*campaign.RollRecord, error)
	TaskCheck(ctx context.Context, req campaign.TaskCheckRequest) (*campaign.RollRecord, error)
	RecentRolls(ctx context.Context, req campaign.RecentRollsRequest) ([]campaign.FeedEntry, error)
	JumpDistance(ctx context.Context, req campaign.JumpRequest) (*campaign.JumpResponse, error)
}

// CommandMetrics records console command activity.
type CommandMetrics interface {
	ObserveCommand(name string)
	ObserveThrottled()
}

type nopMetrics struct{}

func (nopMetrics) ObserveCommand(string) {}
func (nopMetrics) ObserveThrottled()     {}

// errQuit is returned by a table handler to end the session cleanly.
var errQuit = errors.New("quit")

// TableHandler runs the table console for an authenticated user: campaign
// selection, character play, dice and the star map.
type TableHandler struct {
	svc      CampaignService
	atlas    *world.Atlas
	sessions *session.Manager
	registry *command.Registry
	metrics  CommandMetrics
	limit    rate.Limit
	burst    int
	logger   *zap.Logger
}

// NewTableHandler creates a TableHandler.
//
// Precondition: svc, sessions and logger must be non-nil; atlas and metrics may be nil.
// Postcondition: Returns a TableHandler whose per-connection command rate is
// cfg.CommandRate per second with burst cfg.CommandBurst (unlimited when the rate is not positive).
func NewTableHandler(
	svc CampaignService,
	atlas *world.Atlas,
	sessions *session.Manager,
	cfg config.TelnetConfig,
	metrics CommandMetrics,
	logger *zap.Logger,
) *TableHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	limit := rate.Limit(cfg.CommandRate)
	if cfg.CommandRate <= 0 {
		limit = rate.Inf
	}
	burst := cfg.CommandBurst
	if burst <= 0 {
		burst = 1
	}
	return &TableHandler{
		svc:      svc,
		atlas:    atlas,
		sessions: sessions,
		registry: command.DefaultRegistry(),
		metrics:  metrics,
		limit:    limit,
		burst:    burst,
		logger:   logger,
	}
}

// tableContext carries the per-connection state every table handler needs.
type tableContext struct {
	ctx    context.Context
	conn   *telnet.Conn
	user   campaign.User
	sess   *session.Session
	cmd    *command.Command
	parsed command.ParseResult
	// role is the user's role at the current table.
	role permission.Role
}

// campaignReq builds a request for the current table.
func (tc *tableContext) campaignReq() campaign.CampaignRequest {
	return campaign.CampaignRequest{UserID: tc.user.ID, CampaignID: tc.sess.CampaignID}
}

// actor is the name the table sees: the character being played, or the username.
func (tc *tableContext) actor() string {
	if tc.sess.CharacterName != "" {
		return tc.sess.CharacterName
	}
	return tc.user.Username
}

// Serve runs the command loop for user on conn until quit, disconnect or shutdown.
//
// Precondition: user.ID and user.Username must be non-empty; conn must be open.
// Postcondition: The user's session is removed from the table on return.
// Returns nil on clean quit.
func (h *TableHandler) Serve(ctx context.Context, conn *telnet.Conn, user campaign.User) error {
	start := time.Now()
	sess, err := h.sessions.Join(conn.ID(), user.ID, user.Username)
	if err != nil {
		return fmt.Errorf("joining session: %w", err)
	}

	forwarded := make(chan struct{})
	defer func() { <-forwarded }()
	go h.forwardTable(conn, sess.ID, sess.Outbox, forwarded)

	defer func() {
		if sess.CampaignID != "" {
			h.sessions.Broadcast(sess.CampaignID, sess.ID,
				telnet.Colorf(telnet.Dim, "%s leaves the table.", user.Username))
		}
		_ = h.sessions.Leave(sess.ID)
		h.logger.Info("left table console",
			zap.String("conn_id", sess.ID),
			zap.String("username", user.Username),
			zap.Duration("session_duration", time.Since(start)),
		)
	}()

	tc := &tableContext{ctx: ctx, conn: conn, user: user, sess: sess}
	limiter := rate.NewLimiter(h.limit, h.burst)

	_ = conn.WriteLine(telnet.Colorize(telnet.BrightCyan,
		"Type 'campaigns' to list your campaigns, 'use <campaign>' to sit down, or 'help'."))

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		default:
		}

		if err := conn.WritePrompt(prompt(*sess)); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		parsed := command.Parse(line)
		if parsed.Command == "" {
			continue
		}
		if !limiter.Allow() {
			h.metrics.ObserveThrottled()
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Slow down! Too many commands."))
			continue
		}

		cmd, ok := h.registry.Resolve(parsed.Command)
		if !ok {
			msg := fmt.Sprintf("Unknown command '%s'. Type 'help' for available commands.", parsed.Command)
			if s := h.registry.Suggest(parsed.Command); len(s) > 0 {
				msg = fmt.Sprintf("Unknown command '%s'. Did you mean: %s?", parsed.Command, strings.Join(s, ", "))
			}
			_ = conn.WriteLine(telnet.Colorize(telnet.Dim, msg))
			continue
		}
		if cmd.NeedsCampaign && sess.CampaignID == "" {
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Sit down at a table first: 'campaigns', then 'use <campaign>'."))
			continue
		}
		fn, ok := tableHandlerMap[cmd.Handler]
		if !ok {
			h.logger.Error("command has no table handler", zap.String("handler", cmd.Handler))
			_ = conn.WriteLine(telnet.Colorize(telnet.Red, "That command is not available."))
			continue
		}

		h.metrics.ObserveCommand(cmd.Name)
		tc.cmd, tc.parsed = cmd, parsed
		cmdStart := time.Now()
		err = fn(h, tc)
		h.logger.Debug("command handled",
			zap.String("conn_id", sess.ID),
			zap.String("command", cmd.Name),
			zap.Duration("duration", time.Since(cmdStart)),
		)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// forwardTable writes table broadcasts to conn until the outbox is closed.
//
// Postcondition: done is closed when the outbox has been drained.
func (h *TableHandler) forwardTable(conn *telnet.Conn, id string, out *session.Outbox, done chan<- struct{}) {
	defer close(done)
	for msg := range out.Messages() {
		snap, ok := h.sessions.Snapshot(id)
		if err := conn.WriteLine("\r\n" + msg); err != nil {
			h.logger.Debug("forwarding table message", zap.String("conn_id", id), zap.Error(err))
			continue
		}
		if ok {
			_ = conn.WritePrompt(prompt(snap))
		}
	}
}

// prompt renders the command prompt for s.
func prompt(s session.Session) string {
	switch {
	case s.CampaignName == "":
		return telnet.Colorf(telnet.BrightCyan, "[%s]> ", s.Username)
	case s.CharacterName == "":
		return telnet.Colorf(telnet.BrightCyan, "[%s@%s]> ", s.Username, s.CampaignName)
	default:
		return telnet.Colorf(telnet.BrightCyan, "[%s as %s@%s]> ", s.Username, s.CharacterName, s.CampaignName)
	}
}

// usage writes the synopsis of the current command.
func (h *TableHandler) usage(tc *tableContext) error {
	_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "Usage: %s %s", tc.cmd.Name, tc.cmd.Usage))
	return nil
}

// fail reports err to the user. Errors caused by the request are shown
// verbatim; anything else is logged and reported as an internal error.
func (h *TableHandler) fail(tc *tableContext, err error) error {
	var perr *permission.Error
	switch {
	case errors.As(err, &perr):
		_ = tc.conn.WriteLine(telnet.Colorf(telnet.Red, "Permission denied: %s", perr.Message))
	case IsUserError(err):
		msg := strings.TrimPrefix(err.Error(), campaign.ErrInvalidRequest.Error()+": ")
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, msg))
	default:
		h.logger.Error("table command failed",
			zap.String("conn_id", tc.sess.ID),
			zap.String("command", tc.cmd.Name),
			zap.Error(err),
		)
		_ = tc.conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
	}
	return nil
}

// userErrors are failures caused by the request rather than the server.
var userErrors = []error{
	campaign.ErrInvalidRequest,
	campaign.ErrCampaignNotFound,
	campaign.ErrCharacterNotFound,
	campaign.ErrUserNotFound,
	campaign.ErrMemberNotFound,
	campaign.ErrSystemExists,
	world.ErrSectorNotFound,
	world.ErrSystemNotFound,
	hexgrid.ErrInvalidCoordinate,
	uwp.ErrInvalidUWP,
	dice.ErrInvalidNotation,
}

// IsUserError reports whether err was caused by the request rather than the server.
// Exported for testing.
func IsUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// sit moves the session to the table of c and announces it.
func (h *TableHandler) sit(tc *tableContext, c campaign.Summary) error {
	old := tc.sess.CampaignID
	if old == c.ID {
		_ = tc.conn.WriteLine(telnet.Colorf(telnet.Yellow, "You are already at the %s table.", c.Name))
		return nil
	}
	if _, err := h.sessions.Use(tc.sess.ID, c.ID, c.Name); err != nil {
		return fmt.Errorf("moving session: %w", err)
	}
	tc.role = c.Role
	if old != "" {
		h.sessions.Broadcast(old, tc.sess.ID, telnet.Colorf(telnet.Dim, "%s leaves the table.", tc.user.Username))
	}
	h.sessions.Broadcast(c.ID, tc.sess.ID, telnet.Colorf(telnet.Green, "%s sits down at the table.", tc.user.Username))
	h.logger.Info("joined table",
		zap.String("conn_id", tc.sess.ID),
		zap.String("username", tc.user.Username),
		zap.String("campaign_id", c.ID),
		zap.String("role", string(c.Role)),
	)
	_ = tc.conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "You sit down at the %s table as %s.", c.Name, c.Role))
	_ = tc.conn.WriteBlock(RenderPresence(c.Name, h.sessions.AtTable(c.ID)))
	return nil
}

// announce writes msg to the user and broadcasts it to the rest of the table.
func (h *TableHandler) announce(tc *tableContext, msg string) {
	_ = tc.conn.WriteLine(msg)
	h.sessions.Broadcast(tc.sess.CampaignID, tc.sess.ID, msg)
}

// showHelp displays the console commands organized by category.
func (h *TableHandler) showHelp(conn *telnet.Conn) {
	var b strings.Builder
	b.WriteString(telnet.Colorize(telnet.BrightWhite, "Available commands:"))
	b.WriteString("\n")
	byCategory := h.registry.CommandsByCategory()
	for _, cat := range command.Categories() {
		cmds := byCategory[cat]
		if len(cmds) == 0 {
			continue
		}
		b.WriteString(telnet.Colorf(telnet.BrightYellow, "  %s:", strings.ToUpper(cat[:1])+cat[1:]))
		b.WriteString("\n")
		for _, cmd := range cmds {
			synopsis := strings.TrimSpace(cmd.Name + " " + cmd.Usage)
			aliases := ""
			if len(cmd.Aliases) > 0 {
				aliases = telnet.Colorize(telnet.Dim, " ("+strings.Join(cmd.Aliases, ", ")+")")
			}
			b.WriteString(telnet.Colorf(telnet.Green, "    %-36s", synopsis) + " " + cmd.Help + aliases + "\n")
		}
	}
	_ = conn.WriteBlock(b.String())
}
