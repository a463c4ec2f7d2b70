package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

// Store adapts the repositories to campaign.Store and permission.Store.
type Store struct {
	Users        *UserRepository
	Campaigns    *CampaignRepository
	Characters   *CharacterRepository
	Systems      *StarSystemRepository
	GameSessions *GameSessionRepository
	Rolls        *DiceRollRepository
}

var _ campaign.Store = (*Store)(nil)

// NewStore builds every repository over db.
//
// Precondition: db must be a valid, open connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		Users:        NewUserRepository(db),
		Campaigns:    NewCampaignRepository(db),
		Characters:   NewCharacterRepository(db),
		Systems:      NewStarSystemRepository(db),
		GameSessions: NewGameSessionRepository(db),
		Rolls:        NewDiceRollRepository(db),
	}
}

// Membership implements permission.Store.
func (s *Store) Membership(ctx context.Context, userID, campaignID string) (*permission.Membership, error) {
	m, err := s.Campaigns.Membership(ctx, userID, campaignID)
	if errors.Is(err, ErrMembershipNotFound) {
		return nil, permission.ErrNotFound
	}
	return m, err
}

// Character implements permission.Store.
func (s *Store) Character(ctx context.Context, characterID string) (*permission.Character, error) {
	c, err := s.Characters.Ownership(ctx, characterID)
	if errors.Is(err, ErrCharacterNotFound) {
		return nil, permission.ErrNotFound
	}
	return c, err
}

func (s *Store) CreateCampaign(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error) {
	return s.Campaigns.Create(ctx, c)
}

func (s *Store) Campaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	return s.Campaigns.GetByID(ctx, id)
}

func (s *Store) CampaignsForUser(ctx context.Context, userID string) ([]campaign.Summary, error) {
	return s.Campaigns.ListForUser(ctx, userID)
}

func (s *Store) UpsertMember(ctx context.Context, m permission.Membership) error {
	return s.Campaigns.UpsertMember(ctx, m)
}

func (s *Store) Members(ctx context.Context, campaignID string) ([]campaign.Member, error) {
	return s.Campaigns.Members(ctx, campaignID)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*campaign.User, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &campaign.User{ID: u.ID, Username: u.Username}, nil
}

func (s *Store) CreateCharacter(ctx context.Context, c *character.Character) (*character.Character, error) {
	return s.Characters.Create(ctx, c)
}

func (s *Store) LoadCharacter(ctx context.Context, id string) (*character.Character, error) {
	return s.Characters.GetByID(ctx, id)
}

func (s *Store) UpdateCharacter(ctx context.Context, c *character.Character) (*character.Character, error) {
	return s.Characters.Update(ctx, c)
}

func (s *Store) CharactersInCampaign(ctx context.Context, campaignID string) ([]*character.Character, error) {
	return s.Characters.ListByCampaign(ctx, campaignID)
}

func (s *Store) CreateStarSystem(ctx context.Context, sys *world.StarSystem) (*world.StarSystem, error) {
	return s.Systems.Create(ctx, sys)
}

func (s *Store) StarSystems(ctx context.Context, campaignID string) ([]*world.StarSystem, error) {
	return s.Systems.ListByCampaign(ctx, campaignID)
}

func (s *Store) CreateSession(ctx context.Context, gs *campaign.GameSession) (*campaign.GameSession, error) {
	return s.GameSessions.Create(ctx, gs)
}

func (s *Store) Sessions(ctx context.Context, campaignID string) ([]*campaign.GameSession, error) {
	return s.GameSessions.ListByCampaign(ctx, campaignID)
}

func (s *Store) RecordRoll(ctx context.Context, r *campaign.RollRecord) (*campaign.RollRecord, error) {
	return s.Rolls.Record(ctx, r)
}
