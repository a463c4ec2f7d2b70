// Package campaigntest provides an in-memory campaign.Store for tests.
package campaigntest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/permission"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

// MemStore is a mutex-guarded in-memory campaign.Store.
type MemStore struct {
	mu         sync.Mutex
	users      map[string]*campaign.User
	campaigns  map[string]*campaign.Campaign
	members    map[string]map[string]campaign.Member
	characters map[string]*character.Character
	systems    map[string][]*world.StarSystem
	sessions   map[string][]*campaign.GameSession
	rolls      []*campaign.RollRecord
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		users:      make(map[string]*campaign.User),
		campaigns:  make(map[string]*campaign.Campaign),
		members:    make(map[string]map[string]campaign.Member),
		characters: make(map[string]*character.Character),
		systems:    make(map[string][]*world.StarSystem),
		sessions:   make(map[string][]*campaign.GameSession),
	}
}

// AddUser registers a user and returns it.
func (s *MemStore) AddUser(username string) *campaign.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &campaign.User{ID: uuid.NewString(), Username: username}
	s.users[u.ID] = u
	return u
}

// Rolls returns every recorded roll in insertion order.
func (s *MemStore) Rolls() []*campaign.RollRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*campaign.RollRecord(nil), s.rolls...)
}

// Membership implements permission.Store.
func (s *MemStore) Membership(_ context.Context, userID, campaignID string) (*permission.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[campaignID][userID]
	if !ok {
		return nil, permission.ErrNotFound
	}
	out := m.Membership
	return &out, nil
}

// Character implements permission.Store.
func (s *MemStore) Character(_ context.Context, characterID string) (*permission.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[characterID]
	if !ok {
		return nil, permission.ErrNotFound
	}
	return c.Permission(), nil
}

// CreateCampaign implements campaign.CampaignStore.
func (s *MemStore) CreateCampaign(_ context.Context, c *campaign.Campaign) (*campaign.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns[c.ID] = &cp
	s.members[c.ID] = map[string]campaign.Member{
		c.CreatedBy: {
			Membership: permission.Membership{UserID: c.CreatedBy, CampaignID: c.ID, Role: permission.RoleGamemaster, Active: true},
			Username:   s.username(c.CreatedBy),
			JoinedAt:   c.CreatedAt,
		},
	}
	out := cp
	return &out, nil
}

// Campaign implements campaign.CampaignStore.
func (s *MemStore) Campaign(_ context.Context, id string) (*campaign.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", campaign.ErrCampaignNotFound, id)
	}
	out := *c
	return &out, nil
}

// CampaignsForUser implements campaign.CampaignStore.
func (s *MemStore) CampaignsForUser(_ context.Context, userID string) ([]campaign.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []campaign.Summary
	for id, ms := range s.members {
		m, ok := ms[userID]
		if !ok || !m.Active {
			continue
		}
		out = append(out, campaign.Summary{Campaign: *s.campaigns[id], Role: m.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpsertMember implements campaign.CampaignStore.
func (s *MemStore) UpsertMember(_ context.Context, m permission.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[m.CampaignID]; !ok {
		return fmt.Errorf("%w: %s", campaign.ErrCampaignNotFound, m.CampaignID)
	}
	ms := s.members[m.CampaignID]
	joined := time.Now()
	if prev, ok := ms[m.UserID]; ok {
		joined = prev.JoinedAt
	}
	ms[m.UserID] = campaign.Member{Membership: m, Username: s.username(m.UserID), JoinedAt: joined}
	return nil
}

// Members implements campaign.CampaignStore.
func (s *MemStore) Members(_ context.Context, campaignID string) ([]campaign.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]campaign.Member, 0, len(s.members[campaignID]))
	for _, m := range s.members[campaignID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// UserByUsername implements campaign.UserStore.
func (s *MemStore) UserByUsername(_ context.Context, username string) (*campaign.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", campaign.ErrUserNotFound, username)
}

// CreateCharacter implements campaign.CharacterStore.
func (s *MemStore) CreateCharacter(_ context.Context, c *character.Character) (*character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[c.ID] = clone(c)
	return clone(c), nil
}

// LoadCharacter implements campaign.CharacterStore.
func (s *MemStore) LoadCharacter(_ context.Context, id string) (*character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", campaign.ErrCharacterNotFound, id)
	}
	return clone(c), nil
}

// UpdateCharacter implements campaign.CharacterStore.
func (s *MemStore) UpdateCharacter(_ context.Context, c *character.Character) (*character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[c.ID]; !ok {
		return nil, fmt.Errorf("%w: %s", campaign.ErrCharacterNotFound, c.ID)
	}
	s.characters[c.ID] = clone(c)
	return clone(c), nil
}

// CharactersInCampaign implements campaign.CharacterStore.
func (s *MemStore) CharactersInCampaign(_ context.Context, campaignID string) ([]*character.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*character.Character
	for _, c := range s.characters {
		if c.CampaignID == campaignID {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateStarSystem implements campaign.WorldStore.
func (s *MemStore) CreateStarSystem(_ context.Context, sys *world.StarSystem) (*world.StarSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.systems[sys.CampaignID] {
		if existing.Sector == sys.Sector && existing.Hex == sys.Hex {
			return nil, fmt.Errorf("%w: %s %s", campaign.ErrSystemExists, sys.Sector, sys.Hex)
		}
	}
	cp := *sys
	s.systems[sys.CampaignID] = append(s.systems[sys.CampaignID], &cp)
	out := cp
	return &out, nil
}

// StarSystems implements campaign.WorldStore.
func (s *MemStore) StarSystems(_ context.Context, campaignID string) ([]*world.StarSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*world.StarSystem, 0, len(s.systems[campaignID]))
	for _, sys := range s.systems[campaignID] {
		cp := *sys
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sector != out[j].Sector {
			return out[i].Sector < out[j].Sector
		}
		return out[i].Hex < out[j].Hex
	})
	return out, nil
}

// CreateSession implements campaign.SessionStore.
func (s *MemStore) CreateSession(_ context.Context, gs *campaign.GameSession) (*campaign.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *gs
	s.sessions[gs.CampaignID] = append(s.sessions[gs.CampaignID], &cp)
	out := cp
	return &out, nil
}

// Sessions implements campaign.SessionStore.
func (s *MemStore) Sessions(_ context.Context, campaignID string) ([]*campaign.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*campaign.GameSession, 0, len(s.sessions[campaignID]))
	for _, gs := range s.sessions[campaignID] {
		cp := *gs
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// RecordRoll implements campaign.RollStore.
func (s *MemStore) RecordRoll(_ context.Context, r *campaign.RollRecord) (*campaign.RollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rolls = append(s.rolls, &cp)
	out := cp
	return &out, nil
}

func (s *MemStore) username(id string) string {
	if u, ok := s.users[id]; ok {
		return u.Username
	}
	return ""
}

func clone(c *character.Character) *character.Character {
	cp := *c
	cp.Skills = make(map[string]int, len(c.Skills))
	for k, v := range c.Skills {
		cp.Skills[k] = v
	}
	return &cp
}

// MemFeed is an in-memory campaign.RollFeed.
type MemFeed struct {
	mu      sync.Mutex
	entries map[string][]campaign.FeedEntry
	// Err, when set, is returned by Push.
	Err error
}

// NewMemFeed returns an empty MemFeed.
func NewMemFeed() *MemFeed {
	return &MemFeed{entries: make(map[string][]campaign.FeedEntry)}
}

// Push prepends e to the campaign's feed.
func (f *MemFeed) Push(_ context.Context, campaignID string, e campaign.FeedEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.entries[campaignID] = append([]campaign.FeedEntry{e}, f.entries[campaignID]...)
	return nil
}

// Recent returns up to n entries, newest first.
func (f *MemFeed) Recent(_ context.Context, campaignID string, n int) ([]campaign.FeedEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	es := f.entries[campaignID]
	if n < len(es) {
		es = es[:n]
	}
	return append([]campaign.FeedEntry(nil), es...), nil
}
