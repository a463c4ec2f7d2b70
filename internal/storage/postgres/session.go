package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
)

// GameSessionRepository provides scheduled play session persistence.
type GameSessionRepository struct {
	db *pgxpool.Pool
}

// NewGameSessionRepository creates a GameSessionRepository backed by the given pool.
func NewGameSessionRepository(db *pgxpool.Pool) *GameSessionRepository {
	return &GameSessionRepository{db: db}
}

// Create inserts a game session.
//
// Precondition: s.ID, s.CampaignID and s.CreatedBy must be set.
func (r *GameSessionRepository) Create(ctx context.Context, s *campaign.GameSession) (*campaign.GameSession, error) {
	var out campaign.GameSession
	err := r.db.QueryRow(ctx, `
		INSERT INTO game_sessions (id, campaign_id, title, scheduled_at, notes, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, campaign_id, title, scheduled_at, notes, created_by, created_at`,
		s.ID, s.CampaignID, s.Title, s.ScheduledAt, s.Notes, s.CreatedBy, s.CreatedAt,
	).Scan(&out.ID, &out.CampaignID, &out.Title, &out.ScheduledAt, &out.Notes, &out.CreatedBy, &out.CreatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("inserting game session: %w", err)
	}
	return &out, nil
}

// ListByCampaign returns a campaign's sessions in schedule order.
func (r *GameSessionRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*campaign.GameSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, campaign_id, title, scheduled_at, notes, created_by, created_at
		FROM game_sessions WHERE campaign_id = $1
		ORDER BY scheduled_at ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing game sessions: %w", err)
	}
	defer rows.Close()

	out := make([]*campaign.GameSession, 0)
	for rows.Next() {
		var s campaign.GameSession
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.Title, &s.ScheduledAt, &s.Notes, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning game session row: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
