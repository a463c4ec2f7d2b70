package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/permission"
)

// ErrCampaignNotFound is returned when a campaign lookup yields no results.
var ErrCampaignNotFound = campaign.ErrCampaignNotFound

// ErrMembershipNotFound is returned when a membership lookup yields no results.
var ErrMembershipNotFound = campaign.ErrMemberNotFound

// CampaignRepository provides campaign and membership persistence operations.
type CampaignRepository struct {
	db *pgxpool.Pool
}

// NewCampaignRepository creates a CampaignRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts c and its creator's GAMEMASTER membership in one transaction.
//
// Precondition: c.ID and c.CreatedBy must be set; c.CreatedBy must reference an existing user.
// Postcondition: Returns the stored campaign, or ErrUserNotFound when the creator does not exist.
func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error) {
	var out campaign.Campaign
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO campaigns (id, name, description, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, name, description, created_by, created_at`,
			c.ID, c.Name, c.Description, c.CreatedBy, c.CreatedAt,
		).Scan(&out.ID, &out.Name, &out.Description, &out.CreatedBy, &out.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO campaign_members (campaign_id, user_id, role, active, joined_at)
			VALUES ($1, $2, $3, TRUE, $4)`,
			out.ID, out.CreatedBy, string(permission.RoleGamemaster), out.CreatedAt,
		)
		return err
	})
	if err != nil {
		if isForeignKeyError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("inserting campaign: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a campaign by its primary key.
//
// Postcondition: Returns the Campaign or ErrCampaignNotFound.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*campaign.Campaign, error) {
	var c campaign.Campaign
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("querying campaign: %w", err)
	}
	return &c, nil
}

// ListForUser returns the campaigns in which userID is an active member, ordered by name.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CampaignRepository) ListForUser(ctx context.Context, userID string) ([]campaign.Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.description, c.created_by, c.created_at, m.role
		FROM campaigns c
		JOIN campaign_members m ON m.campaign_id = c.id
		WHERE m.user_id = $1 AND m.active
		ORDER BY c.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	out := make([]campaign.Summary, 0)
	for rows.Next() {
		var s campaign.Summary
		var role string
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedBy, &s.CreatedAt, &role); err != nil {
			return nil, fmt.Errorf("scanning campaign row: %w", err)
		}
		s.Role = permission.Role(role)
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertMember creates or replaces a membership.
//
// Precondition: m.Role must be valid.
// Postcondition: The membership row matches m, or ErrCampaignNotFound /
// ErrUserNotFound is returned for a dangling reference.
func (r *CampaignRepository) UpsertMember(ctx context.Context, m permission.Membership) error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q", m.Role)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO campaign_members (campaign_id, user_id, role, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (campaign_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, active = EXCLUDED.active`,
		m.CampaignID, m.UserID, string(m.Role), m.Active,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w or %w", ErrCampaignNotFound, ErrUserNotFound)
		}
		return fmt.Errorf("upserting membership: %w", err)
	}
	return nil
}

// Members lists a campaign's memberships joined with usernames, ordered by username.
func (r *CampaignRepository) Members(ctx context.Context, campaignID string) ([]campaign.Member, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.campaign_id, m.user_id, m.role, m.active, m.joined_at, u.username
		FROM campaign_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.campaign_id = $1
		ORDER BY u.username ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	out := make([]campaign.Member, 0)
	for rows.Next() {
		var m campaign.Member
		var role string
		if err := rows.Scan(&m.CampaignID, &m.UserID, &role, &m.Active, &m.JoinedAt, &m.Username); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		m.Role = permission.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Membership returns a single membership.
//
// Postcondition: Returns the membership or ErrMembershipNotFound.
func (r *CampaignRepository) Membership(ctx context.Context, userID, campaignID string) (*permission.Membership, error) {
	var m permission.Membership
	var role string
	err := r.db.QueryRow(ctx, `
		SELECT campaign_id, user_id, role, active
		FROM campaign_members WHERE user_id = $1 AND campaign_id = $2`,
		userID, campaignID,
	).Scan(&m.CampaignID, &m.UserID, &role, &m.Active)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("querying membership: %w", err)
	}
	m.Role = permission.Role(role)
	return &m, nil
}
