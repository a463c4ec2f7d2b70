// Package campaign implements the campaign operations offered to the table
// console: membership, characters, star systems, sessions and dice rolls.
// Every mutation is gated by the permission evaluator.
package campaign

import (
	"context"
	"errors"
	"time"

	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

var (
	// ErrInvalidRequest is returned when a request fails validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCampaignNotFound is returned when a campaign lookup yields no results.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrCharacterNotFound is returned when a character lookup yields no results.
	ErrCharacterNotFound = errors.New("character not found")
	// ErrUserNotFound is returned when a user lookup yields no results.
	ErrUserNotFound = errors.New("user not found")
	// ErrMemberNotFound is returned when a membership lookup yields no results.
	ErrMemberNotFound = errors.New("member not found")
	// ErrSystemExists is returned when a hex in a sector already holds a system.
	ErrSystemExists = errors.New("star system already exists at hex")
)

// Campaign is a group of users playing in one setting.
type Campaign struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
}

// Summary is a campaign together with the viewing user's role in it.
type Summary struct {
	Campaign
	Role permission.Role
}

// User is the identity a campaign refers to.
type User struct {
	ID       string
	Username string
}

// Member is a campaign membership joined with the member's username.
type Member struct {
	permission.Membership
	Username string
	JoinedAt time.Time
}

// GameSession is a scheduled play session.
type GameSession struct {
	ID          string
	CampaignID  string
	Title       string
	ScheduledAt time.Time
	Notes       string
	CreatedBy   string
	CreatedAt   time.Time
}

// RollRecord is a persisted dice roll or task check.
//
// Difficulty, Success and Effect are set only for task checks.
type RollRecord struct {
	ID          string
	CampaignID  string
	UserID      string
	CharacterID string
	Purpose     string
	Result      dice.RollResult
	Difficulty  *int
	Success     *bool
	Effect      *int
	CreatedAt   time.Time
}

// IsTaskCheck reports whether the record holds a task check outcome.
func (r *RollRecord) IsTaskCheck() bool {
	return r.Success != nil
}

// FeedEntry is a compact roll summary kept in the recent-roll feed.
type FeedEntry struct {
	At          time.Time `json:"at"`
	Username    string    `json:"username"`
	Character   string    `json:"character,omitempty"`
	Purpose     string    `json:"purpose,omitempty"`
	Notation    string    `json:"notation"`
	Individual  []int     `json:"individual"`
	FinalResult int       `json:"finalResult"`
	Difficulty  int       `json:"difficulty,omitempty"`
	Success     *bool     `json:"success,omitempty"`
	Effect      int       `json:"effect,omitempty"`
}

// CampaignStore persists campaigns and memberships.
type CampaignStore interface {
	// CreateCampaign inserts c and the creator's gamemaster membership atomically.
	CreateCampaign(ctx context.Context, c *Campaign) (*Campaign, error)
	// Campaign returns the campaign or ErrCampaignNotFound.
	Campaign(ctx context.Context, id string) (*Campaign, error)
	// CampaignsForUser lists the campaigns in which userID holds an active membership.
	CampaignsForUser(ctx context.Context, userID string) ([]Summary, error)
	// UpsertMember creates or replaces a membership.
	UpsertMember(ctx context.Context, m permission.Membership) error
	// Members lists the campaign's memberships, active or not.
	Members(ctx context.Context, campaignID string) ([]Member, error)
}

// UserStore resolves users by name.
type UserStore interface {
	// UserByUsername returns the user or ErrUserNotFound.
	UserByUsername(ctx context.Context, username string) (*User, error)
}

// CharacterStore persists characters.
type CharacterStore interface {
	CreateCharacter(ctx context.Context, c *character.Character) (*character.Character, error)
	// LoadCharacter returns the character or ErrCharacterNotFound.
	LoadCharacter(ctx context.Context, id string) (*character.Character, error)
	UpdateCharacter(ctx context.Context, c *character.Character) (*character.Character, error)
	CharactersInCampaign(ctx context.Context, campaignID string) ([]*character.Character, error)
}

// WorldStore persists star systems.
type WorldStore interface {
	// CreateStarSystem inserts s or returns ErrSystemExists.
	CreateStarSystem(ctx context.Context, s *world.StarSystem) (*world.StarSystem, error)
	StarSystems(ctx context.Context, campaignID string) ([]*world.StarSystem, error)
}

// SessionStore persists game sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *GameSession) (*GameSession, error)
	Sessions(ctx context.Context, campaignID string) ([]*GameSession, error)
}

// RollStore persists dice rolls.
type RollStore interface {
	RecordRoll(ctx context.Context, r *RollRecord) (*RollRecord, error)
}

// Store is the persistence collaborator of the Service.
type Store interface {
	permission.Store
	CampaignStore
	UserStore
	CharacterStore
	WorldStore
	SessionStore
	RollStore
}

// RollFeed keeps a bounded list of recent rolls per campaign.
type RollFeed interface {
	Push(ctx context.Context, campaignID string, e FeedEntry) error
	Recent(ctx context.Context, campaignID string, n int) ([]FeedEntry, error)
}
