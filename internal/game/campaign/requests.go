package campaign

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/characteristic"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func requireID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid("%s must not be empty", field)
	}
	return nil
}

// CampaignRequest identifies a campaign read by UserID.
type CampaignRequest struct {
	UserID     string
	CampaignID string
}

// Validate reports a missing field.
func (r CampaignRequest) Validate() error {
	if err := requireID("user", r.UserID); err != nil {
		return err
	}
	return requireID("campaign", r.CampaignID)
}

// CreateCampaignRequest creates a campaign owned by UserID.
type CreateCampaignRequest struct {
	UserID      string
	Name        string
	Description string
}

// Validate reports a missing user or an out-of-range name.
func (r CreateCampaignRequest) Validate() error {
	if err := requireID("user", r.UserID); err != nil {
		return err
	}
	if n := len(strings.TrimSpace(r.Name)); n < 2 || n > 128 {
		return invalid("campaign name must be 2-128 characters")
	}
	return nil
}

// AddMemberRequest adds Username to a campaign with Role.
type AddMemberRequest struct {
	UserID     string
	CampaignID string
	Username   string
	Role       permission.Role
}

// Validate reports a missing field or an unknown role.
func (r AddMemberRequest) Validate() error {
	if err := (CampaignRequest{r.UserID, r.CampaignID}).Validate(); err != nil {
		return err
	}
	if err := requireID("username", r.Username); err != nil {
		return err
	}
	if !r.Role.Valid() {
		return invalid("unknown role %q", r.Role)
	}
	return nil
}

// SetMemberRoleRequest changes the role of an existing member.
type SetMemberRoleRequest struct {
	UserID       string
	CampaignID   string
	MemberUserID string
	Role         permission.Role
}

// Validate reports a missing field, an unknown role or a self-change.
func (r SetMemberRoleRequest) Validate() error {
	if err := (CampaignRequest{r.UserID, r.CampaignID}).Validate(); err != nil {
		return err
	}
	if err := requireID("member", r.MemberUserID); err != nil {
		return err
	}
	if !r.Role.Valid() {
		return invalid("unknown role %q", r.Role)
	}
	if r.MemberUserID == r.UserID {
		return invalid("a gamemaster cannot change their own role")
	}
	return nil
}

// CreateCharacterRequest creates a character for UserID. When
// Characteristics is nil they are rolled.
type CreateCharacterRequest struct {
	UserID          string
	CampaignID      string
	Name            string
	Species         string
	Homeworld       string
	Age             int
	Characteristics *characteristic.Characteristics
	Skills          map[string]int
	Credits         int
	Notes           string
}

// CreateCharacterResponse carries the new character and any rolls made.
type CreateCharacterResponse struct {
	Character *character.Character
	Rolls     []dice.RollResult
}

// UpdateCharacterRequest changes the fields that are non-nil. Skills are
// merged; a level below zero removes the skill.
type UpdateCharacterRequest struct {
	UserID          string
	CharacterID     string
	Name            *string
	Homeworld       *string
	Age             *int
	Characteristics *characteristic.Characteristics
	Skills          map[string]int
	Credits         *int
	Notes           *string
}

// Validate reports a missing identifier.
func (r UpdateCharacterRequest) Validate() error {
	if err := requireID("user", r.UserID); err != nil {
		return err
	}
	return requireID("character", r.CharacterID)
}

// CharacterRequest identifies a character read by UserID.
type CharacterRequest struct {
	UserID      string
	CharacterID string
}

// AddStarSystemRequest places a system on a campaign's map.
type AddStarSystemRequest struct {
	UserID     string
	CampaignID string
	System     world.StarSystem
}

// ImportSectorRequest places every system of a sector on a campaign's map.
type ImportSectorRequest struct {
	UserID     string
	CampaignID string
	Sector     *world.Sector
}

// ScheduleSessionRequest schedules a play session.
type ScheduleSessionRequest struct {
	UserID      string
	CampaignID  string
	Title       string
	ScheduledAt time.Time
	Notes       string
}

// Validate reports a missing field.
func (r ScheduleSessionRequest) Validate() error {
	if err := (CampaignRequest{r.UserID, r.CampaignID}).Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Title) == "" {
		return invalid("session title must not be empty")
	}
	if r.ScheduledAt.IsZero() {
		return invalid("session time must be set")
	}
	return nil
}

// RollDiceRequest rolls dice notation on behalf of UserID, optionally for a
// character.
type RollDiceRequest struct {
	UserID      string
	Username    string
	CampaignID  string
	CharacterID string
	Notation    string
	Modifiers   []dice.Modifier
	Purpose     string
}

// TaskCheckRequest resolves a 2d6 task check for a character. Skill and
// Characteristic are looked up on the character; Difficulty 0 means the
// service default.
type TaskCheckRequest struct {
	UserID         string
	Username       string
	CampaignID     string
	CharacterID    string
	Skill          string
	Characteristic string
	Difficulty     int
	Extra          []dice.Modifier
	Purpose        string
}

// RecentRollsRequest reads the campaign's roll feed.
type RecentRollsRequest struct {
	UserID     string
	CampaignID string
	Limit      int
}

// JumpRequest measures the distance between two hexes of a campaign's map.
type JumpRequest struct {
	UserID     string
	CampaignID string
	From       string
	To         string
}

// JumpResponse is the distance and the systems found at each end, if any.
type JumpResponse struct {
	Distance int
	From     *world.StarSystem
	To       *world.StarSystem
}
