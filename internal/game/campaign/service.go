package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/hexgrid"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

// Options tunes the Service.
type Options struct {
	// DefaultDifficulty is used by TaskCheck when the request gives none.
	DefaultDifficulty int
	// MaxDice caps the dice count of a single roll.
	MaxDice int
	// FeedSize caps RecentRolls.
	FeedSize int
}

// DefaultOptions returns the standard table settings.
func DefaultOptions() Options {
	return Options{DefaultDifficulty: dice.DefaultDifficulty, MaxDice: 100, FeedSize: 50}
}

// Service implements the campaign operations.
type Service struct {
	store  Store
	feed   RollFeed
	perms  *permission.Evaluator
	roller *dice.Roller
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a Service.
//
// Precondition: store, perms, roller and logger must be non-nil; feed may be nil.
func NewService(store Store, feed RollFeed, perms *permission.Evaluator, roller *dice.Roller, opts Options, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		feed:   feed,
		perms:  perms,
		roller: roller,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// require checks that userID holds at least role in campaignID.
//
// Postcondition: Returns the decision, and a *permission.Error when denied.
func (s *Service) require(ctx context.Context, userID, campaignID string, role permission.Role) (permission.Decision, error) {
	d := s.perms.CampaignPermission(ctx, userID, campaignID, role)
	return d, d.Err()
}

// Campaigns lists the campaigns userID belongs to.
func (s *Service) Campaigns(ctx context.Context, userID string) ([]Summary, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	return s.store.CampaignsForUser(ctx, userID)
}

// Campaign returns a campaign the user is a member of.
func (s *Service) Campaign(ctx context.Context, req CampaignRequest) (*Campaign, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleObserver); err != nil {
		return nil, err
	}
	return s.store.Campaign(ctx, req.CampaignID)
}

// CreateCampaign creates a campaign; the creator becomes its gamemaster.
//
// Postcondition: Returns the stored campaign, or ErrInvalidRequest.
func (s *Service) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*Campaign, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.store.CreateCampaign(ctx, &Campaign{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   req.UserID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating campaign: %w", err)
	}
	s.logger.Info("campaign created",
		zap.String("campaign_id", c.ID),
		zap.String("name", c.Name),
		zap.String("gamemaster", req.UserID),
	)
	return c, nil
}

// AddMember adds a user to the campaign. Gamemaster only.
func (s *Service) AddMember(ctx context.Context, req AddMemberRequest) (*Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleGamemaster); err != nil {
		return nil, err
	}
	u, err := s.store.UserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	m := permission.Membership{UserID: u.ID, CampaignID: req.CampaignID, Role: req.Role, Active: true}
	if err := s.store.UpsertMember(ctx, m); err != nil {
		return nil, fmt.Errorf("adding member: %w", err)
	}
	s.logger.Info("member added",
		zap.String("campaign_id", req.CampaignID),
		zap.String("username", u.Username),
		zap.String("role", string(req.Role)),
	)
	return &Member{Membership: m, Username: u.Username, JoinedAt: s.now()}, nil
}

// SetMemberRole changes an existing member's role. Gamemaster only.
func (s *Service) SetMemberRole(ctx context.Context, req SetMemberRoleRequest) (*Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleGamemaster); err != nil {
		return nil, err
	}
	members, err := s.store.Members(ctx, req.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	for _, m := range members {
		if m.UserID != req.MemberUserID {
			continue
		}
		m.Role = req.Role
		if err := s.store.UpsertMember(ctx, m.Membership); err != nil {
			return nil, fmt.Errorf("setting role: %w", err)
		}
		s.logger.Info("member role changed",
			zap.String("campaign_id", req.CampaignID),
			zap.String("user_id", m.UserID),
			zap.String("role", string(req.Role)),
		)
		return &m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, req.MemberUserID)
}

// Members lists the campaign's members.
func (s *Service) Members(ctx context.Context, req CampaignRequest) ([]Member, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleObserver); err != nil {
		return nil, err
	}
	return s.store.Members(ctx, req.CampaignID)
}

// CreateCharacter builds and stores a character for the requesting player.
//
// Postcondition: Returns the stored character and the characteristic rolls
// made (empty when characteristics were supplied), or an error wrapping
// ErrInvalidRequest that lists every problem.
func (s *Service) CreateCharacter(ctx context.Context, req CreateCharacterRequest) (*CreateCharacterResponse, error) {
	if err := (CampaignRequest{req.UserID, req.CampaignID}).Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RolePlayer); err != nil {
		return nil, err
	}

	b := character.NewBuilder(req.CampaignID, req.UserID).
		Name(req.Name).
		Background(req.Species, req.Homeworld).
		Credits(req.Credits).
		Notes(req.Notes)
	if req.Age > 0 {
		b.Age(req.Age)
	}
	if req.Characteristics != nil {
		b.AssignCharacteristics(*req.Characteristics)
	} else {
		b.RollCharacteristics(s.roller.Source())
	}
	for name, lvl := range req.Skills {
		b.AddSkill(name, lvl)
	}
	c, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	now := s.now()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	stored, err := s.store.CreateCharacter(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("creating character: %w", err)
	}
	s.logger.Info("character created",
		zap.String("campaign_id", req.CampaignID),
		zap.String("character_id", stored.ID),
		zap.String("name", stored.Name),
		zap.String("upp", stored.UPP()),
	)
	return &CreateCharacterResponse{Character: stored, Rolls: b.Rolls()}, nil
}

// UpdateCharacter changes a character. Owner or campaign gamemaster only.
func (s *Service) UpdateCharacter(ctx context.Context, req UpdateCharacterRequest) (*character.Character, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.perms.CharacterPermission(ctx, req.UserID, req.CharacterID).Err(); err != nil {
		return nil, err
	}
	c, err := s.store.LoadCharacter(ctx, req.CharacterID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Homeworld != nil {
		c.Homeworld = *req.Homeworld
	}
	if req.Age != nil {
		c.Age = *req.Age
	}
	if req.Characteristics != nil {
		c.Characteristics = *req.Characteristics
	}
	if req.Credits != nil {
		c.Credits = *req.Credits
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}
	for name, lvl := range req.Skills {
		if lvl < 0 {
			delete(c.Skills, character.NormalizeSkill(name))
			continue
		}
		if err := c.SetSkill(name, lvl); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	c.UpdatedAt = s.now()
	updated, err := s.store.UpdateCharacter(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("updating character: %w", err)
	}
	s.logger.Info("character updated",
		zap.String("character_id", c.ID),
		zap.String("by", req.UserID),
	)
	return updated, nil
}

// Character returns a character to any member of its campaign.
func (s *Service) Character(ctx context.Context, req CharacterRequest) (*character.Character, error) {
	if err := requireID("character", req.CharacterID); err != nil {
		return nil, err
	}
	c, err := s.store.LoadCharacter(ctx, req.CharacterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, c.CampaignID, permission.RoleObserver); err != nil {
		return nil, err
	}
	return c, nil
}

// Characters lists the campaign's characters.
func (s *Service) Characters(ctx context.Context, req CampaignRequest) ([]*character.Character, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleObserver); err != nil {
		return nil, err
	}
	return s.store.CharactersInCampaign(ctx, req.CampaignID)
}

// AddStarSystem places a system on the campaign map. Gamemaster only.
//
// Postcondition: Returns the stored system, an error wrapping ErrInvalidRequest
// for a bad hex or UWP, or ErrSystemExists.
func (s *Service) AddStarSystem(ctx context.Context, req AddStarSystemRequest) (*world.StarSystem, error) {
	if err := (CampaignRequest{req.UserID, req.CampaignID}).Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleGamemaster); err != nil {
		return nil, err
	}
	return s.addSystem(ctx, req.CampaignID, req.System)
}

func (s *Service) addSystem(ctx context.Context, campaignID string, sys world.StarSystem) (*world.StarSystem, error) {
	sys.Bases = append([]string(nil), sys.Bases...)
	sys.Normalize()
	if err := sys.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	sys.ID = uuid.NewString()
	sys.CampaignID = campaignID
	stored, err := s.store.CreateStarSystem(ctx, &sys)
	if err != nil {
		return nil, err
	}
	s.logger.Info("star system added",
		zap.String("campaign_id", campaignID),
		zap.String("sector", stored.Sector),
		zap.String("hex", stored.Hex),
		zap.String("uwp", stored.UWP),
	)
	return stored, nil
}

// ImportResult counts the outcome of ImportSector.
type ImportResult struct {
	Added   int
	Skipped int
}

// ImportSector adds every system of a sector, skipping hexes that are already
// occupied. Gamemaster only.
func (s *Service) ImportSector(ctx context.Context, req ImportSectorRequest) (ImportResult, error) {
	var res ImportResult
	if err := (CampaignRequest{req.UserID, req.CampaignID}).Validate(); err != nil {
		return res, err
	}
	if req.Sector == nil {
		return res, invalid("sector must be set")
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleGamemaster); err != nil {
		return res, err
	}
	for _, sys := range req.Sector.Systems {
		cp := *sys
		cp.Sector = req.Sector.Name
		_, err := s.addSystem(ctx, req.CampaignID, cp)
		switch {
		case errors.Is(err, ErrSystemExists):
			res.Skipped++
		case err != nil:
			return res, err
		default:
			res.Added++
		}
	}
	return res, nil
}

// StarSystems lists the campaign's systems.
func (s *Service) StarSystems(ctx context.Context, req CampaignRequest) ([]*world.StarSystem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleObserver); err != nil {
		return nil, err
	}
	return s.store.StarSystems(ctx, req.CampaignID)
}

// ScheduleSession schedules a play session. Gamemaster only.
func (s *Service) ScheduleSession(ctx context.Context, req ScheduleSessionRequest) (*GameSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleGamemaster); err != nil {
		return nil, err
	}
	gs, err := s.store.CreateSession(ctx, &GameSession{
		ID:          uuid.NewString(),
		CampaignID:  req.CampaignID,
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
		CreatedBy:   req.UserID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling session: %w", err)
	}
	return gs, nil
}

// Sessions lists the campaign's sessions.
func (s *Service) Sessions(ctx context.Context, req CampaignRequest) ([]*GameSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleObserver); err != nil {
		return nil, err
	}
	return s.store.Sessions(ctx, req.CampaignID)
}

// RollDice rolls notation for a player, records it and publishes it to the feed.
//
// Postcondition: Returns the stored record, or an error wrapping
// ErrInvalidRequest (and dice.ErrInvalidNotation for bad notation).
func (s *Service) RollDice(ctx context.Context, req RollDiceRequest) (*RollRecord, error) {
	if err := (CampaignRequest{req.UserID, req.CampaignID}).Validate(); err != nil {
		return nil, err
	}
	expr, err := dice.Parse(req.Notation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if expr.Count > s.opts.MaxDice {
		return nil, invalid("at most %d dice may be rolled at once", s.opts.MaxDice)
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RolePlayer); err != nil {
		return nil, err
	}
	charName := ""
	if req.CharacterID != "" {
		c, err := s.ownedCharacter(ctx, req.UserID, req.CampaignID, req.CharacterID)
		if err != nil {
			return nil, err
		}
		charName = c.Name
	}

	res := s.roller.Roll(expr, req.Modifiers...)
	rec := &RollRecord{
		ID:          uuid.NewString(),
		CampaignID:  req.CampaignID,
		UserID:      req.UserID,
		CharacterID: req.CharacterID,
		Purpose:     req.Purpose,
		Result:      res,
		CreatedAt:   s.now(),
	}
	return s.record(ctx, rec, req.Username, charName)
}

// TaskCheck resolves a 2d6 task check for a character the user controls.
func (s *Service) TaskCheck(ctx context.Context, req TaskCheckRequest) (*RollRecord, error) {
	if err := (CampaignRequest{req.UserID, req.CampaignID}).Validate(); err != nil {
		return nil, err
	}
	if err := requireID("character", req.CharacterID); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RolePlayer); err != nil {
		return nil, err
	}
	c, err := s.ownedCharacter(ctx, req.UserID, req.CampaignID, req.CharacterID)
	if err != nil {
		return nil, err
	}

	skill := 0
	if req.Skill != "" {
		skill = c.SkillLevel(req.Skill)
	}
	dm := 0
	if req.Characteristic != "" {
		if dm, err = c.CharacteristicDM(req.Characteristic); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	difficulty := req.Difficulty
	if difficulty == 0 {
		difficulty = s.opts.DefaultDifficulty
	}

	res := s.roller.TaskCheck(skill, dm, difficulty, req.Extra...)
	purpose := req.Purpose
	if purpose == "" {
		purpose = taskPurpose(req.Skill, req.Characteristic)
	}
	rec := &RollRecord{
		ID:          uuid.NewString(),
		CampaignID:  req.CampaignID,
		UserID:      req.UserID,
		CharacterID: c.ID,
		Purpose:     purpose,
		Result:      res.RollResult,
		Difficulty:  &res.Difficulty,
		Success:     &res.Success,
		Effect:      &res.Effect,
		CreatedAt:   s.now(),
	}
	return s.record(ctx, rec, req.Username, c.Name)
}

func taskPurpose(skill, char string) string {
	switch {
	case skill != "" && char != "":
		return skill + "/" + char
	case skill != "":
		return skill
	default:
		return char
	}
}

// ownedCharacter loads a character in campaignID that userID may act for.
func (s *Service) ownedCharacter(ctx context.Context, userID, campaignID, characterID string) (*character.Character, error) {
	if err := s.perms.CharacterPermission(ctx, userID, characterID).Err(); err != nil {
		return nil, err
	}
	c, err := s.store.LoadCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if c.CampaignID != campaignID {
		return nil, invalid("character %s is not in this campaign", c.Name)
	}
	return c, nil
}

func (s *Service) record(ctx context.Context, rec *RollRecord, username, charName string) (*RollRecord, error) {
	stored, err := s.store.RecordRoll(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("recording roll: %w", err)
	}
	if s.feed == nil {
		return stored, nil
	}
	entry := FeedEntry{
		At:          stored.CreatedAt,
		Username:    username,
		Character:   charName,
		Purpose:     stored.Purpose,
		Notation:    stored.Result.Notation,
		Individual:  stored.Result.Individual,
		FinalResult: stored.Result.FinalResult,
		Success:     stored.Success,
	}
	if stored.IsTaskCheck() {
		entry.Difficulty = *stored.Difficulty
		entry.Effect = *stored.Effect
	}
	if err := s.feed.Push(ctx, stored.CampaignID, entry); err != nil {
		s.logger.Warn("publishing roll to feed",
			zap.String("campaign_id", stored.CampaignID),
			zap.Error(err),
		)
	}
	return stored, nil
}

// RecentRolls returns up to req.Limit feed entries, newest first.
func (s *Service) RecentRolls(ctx context.Context, req RecentRollsRequest) ([]FeedEntry, error) {
	if err := (CampaignRequest{req.UserID, req.CampaignID}).Validate(); err != nil {
		return nil, err
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleObserver); err != nil {
		return nil, err
	}
	if s.feed == nil {
		return nil, nil
	}
	n := req.Limit
	if n <= 0 || n > s.opts.FeedSize {
		n = s.opts.FeedSize
	}
	return s.feed.Recent(ctx, req.CampaignID, n)
}

// JumpDistance measures the hex distance between two map hexes.
func (s *Service) JumpDistance(ctx context.Context, req JumpRequest) (*JumpResponse, error) {
	if err := (CampaignRequest{req.UserID, req.CampaignID}).Validate(); err != nil {
		return nil, err
	}
	d, err := hexgrid.DistanceBetween(req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if _, err := s.require(ctx, req.UserID, req.CampaignID, permission.RoleObserver); err != nil {
		return nil, err
	}
	systems, err := s.store.StarSystems(ctx, req.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("listing star systems: %w", err)
	}
	resp := &JumpResponse{Distance: d}
	for _, sys := range systems {
		if resp.From == nil && sys.Hex == req.From {
			resp.From = sys
		}
		if resp.To == nil && sys.Hex == req.To {
			resp.To = sys
		}
	}
	return resp, nil
}
