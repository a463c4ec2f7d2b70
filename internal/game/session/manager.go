package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Session tracks a connected user. CampaignID is empty until the user sits
// down at a table; CharacterID is empty until they pick a character.
//
// The mutable fields are written only through the Manager.
type Session struct {
	// ID is the connection identifier.
	ID string
	// UserID is the authenticated user's ID.
	UserID string
	// Username is the authenticated user's name.
	Username string
	// ConnectedAt is when the session joined.
	ConnectedAt time.Time
	// CampaignID is the table the user sits at.
	CampaignID string
	// CampaignName is the display name of that table.
	CampaignName string
	// CharacterID is the character the user rolls as.
	CharacterID string
	// CharacterName is that character's display name.
	CharacterName string
	// Outbox receives table broadcasts for this connection.
	Outbox *Outbox
}

// Presence is a snapshot of one user at a table.
type Presence struct {
	Username      string
	CharacterName string
	ConnectedAt   time.Time
}

// Manager tracks all active sessions and table occupancy.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session        // id → session
	tables   map[string]map[string]bool // campaignID → set of session ids
	now      func() time.Time
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		tables:   make(map[string]map[string]bool),
		now:      time.Now,
	}
}

// Join registers a new session that is not yet at any table.
//
// Precondition: id, userID, and username must be non-empty.
// Postcondition: Returns the created Session, or an error if id is already registered.
func (m *Manager) Join(id, userID, username string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session %q already connected", id)
	}

	sess := &Session{
		ID:          id,
		UserID:      userID,
		Username:    username,
		ConnectedAt: m.now(),
		Outbox:      NewOutbox(id, 64),
	}
	m.sessions[id] = sess
	return sess, nil
}

// Leave removes a session, leaves its table, and closes its outbox.
//
// Postcondition: The session is removed from all tracking. Returns an error if not found.
func (m *Manager) Leave(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[id]
	if !exists {
		return fmt.Errorf("session %q not found", id)
	}
	m.removeFromTable(sess)
	_ = sess.Outbox.Close()
	delete(m.sessions, id)
	return nil
}

// Use moves a session to the table of campaignID and clears its character.
//
// Postcondition: Returns the previous campaign ID (empty if none), or an error if the session is not found.
func (m *Manager) Use(id, campaignID, campaignName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[id]
	if !exists {
		return "", fmt.Errorf("session %q not found", id)
	}

	old := sess.CampaignID
	m.removeFromTable(sess)

	sess.CampaignID = campaignID
	sess.CampaignName = campaignName
	sess.CharacterID = ""
	sess.CharacterName = ""
	if campaignID != "" {
		if m.tables[campaignID] == nil {
			m.tables[campaignID] = make(map[string]bool)
		}
		m.tables[campaignID][id] = true
	}
	return old, nil
}

// SetCharacter records the character a session rolls as.
//
// Postcondition: Returns an error if the session is not found.
func (m *Manager) SetCharacter(id, characterID, characterName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[id]
	if !exists {
		return fmt.Errorf("session %q not found", id)
	}
	sess.CharacterID = characterID
	sess.CharacterName = characterName
	return nil
}

// removeFromTable drops sess from its table set.
//
// Precondition: m.mu must be held for writing.
func (m *Manager) removeFromTable(sess *Session) {
	if ts, ok := m.tables[sess.CampaignID]; ok {
		delete(ts, sess.ID)
		if len(ts) == 0 {
			delete(m.tables, sess.CampaignID)
		}
	}
}

// AtTable returns a snapshot of the users at campaignID's table ordered by username.
//
// Postcondition: Returns a slice of Presence (may be empty).
func (m *Manager) AtTable(campaignID string) []Presence {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.tables[campaignID]
	out := make([]Presence, 0, len(ids))
	for id := range ids {
		if sess, ok := m.sessions[id]; ok {
			out = append(out, Presence{
				Username:      sess.Username,
				CharacterName: sess.CharacterName,
				ConnectedAt:   sess.ConnectedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Broadcast pushes msg to every session at campaignID's table except exceptID.
// Sessions whose outbox is full or closed are skipped.
//
// Postcondition: Returns the number of sessions msg was delivered to.
func (m *Manager) Broadcast(campaignID, exceptID, msg string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	delivered := 0
	for id := range m.tables[campaignID] {
		if id == exceptID {
			continue
		}
		if sess, ok := m.sessions[id]; ok && sess.Outbox.Push(msg) == nil {
			delivered++
		}
	}
	return delivered
}

// Get returns the session for id.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Snapshot returns a copy of the session for id taken under the manager lock,
// for readers on goroutines other than the session's own.
//
// Postcondition: Returns (copy, true) if found, or (Session{}, false) otherwise.
func (m *Manager) Snapshot(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Count returns the total number of connected sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
