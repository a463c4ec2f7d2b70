package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

// ErrSystemExists is returned when a sector hex in a campaign is already occupied.
var ErrSystemExists = campaign.ErrSystemExists

// StarSystemRepository provides star system persistence operations.
type StarSystemRepository struct {
	db *pgxpool.Pool
}

// NewStarSystemRepository creates a StarSystemRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewStarSystemRepository(db *pgxpool.Pool) *StarSystemRepository {
	return &StarSystemRepository{db: db}
}

// Create inserts a star system. Hex and UWP are stored in their textual form.
//
// Precondition: s must have passed Validate; s.ID and s.CampaignID must be set.
// Postcondition: Returns the stored system, or ErrSystemExists on a duplicate hex.
func (r *StarSystemRepository) Create(ctx context.Context, s *world.StarSystem) (*world.StarSystem, error) {
	bases := s.Bases
	if bases == nil {
		bases = []string{}
	}
	var out world.StarSystem
	err := r.db.QueryRow(ctx, `
		INSERT INTO star_systems
			(id, campaign_id, sector, hex, name, uwp, bases, gas_giant, allegiance, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, campaign_id, sector, hex, name, uwp, bases, gas_giant, allegiance, notes`,
		s.ID, s.CampaignID, s.Sector, s.Hex, s.Name, s.UWP, bases, s.GasGiant, s.Allegiance, s.Notes,
	).Scan(&out.ID, &out.CampaignID, &out.Sector, &out.Hex, &out.Name, &out.UWP,
		&out.Bases, &out.GasGiant, &out.Allegiance, &out.Notes)
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return nil, fmt.Errorf("%w: %s %s", ErrSystemExists, s.Sector, s.Hex)
		case isForeignKeyError(err):
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("inserting star system: %w", err)
	}
	return &out, nil
}

// ListByCampaign returns a campaign's systems ordered by sector then hex.
func (r *StarSystemRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*world.StarSystem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, campaign_id, sector, hex, name, uwp, bases, gas_giant, allegiance, notes
		FROM star_systems WHERE campaign_id = $1
		ORDER BY sector ASC, hex ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing star systems: %w", err)
	}
	defer rows.Close()

	out := make([]*world.StarSystem, 0)
	for rows.Next() {
		var s world.StarSystem
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.Sector, &s.Hex, &s.Name, &s.UWP,
			&s.Bases, &s.GasGiant, &s.Allegiance, &s.Notes); err != nil {
			return nil, fmt.Errorf("scanning star system row: %w", err)
		}
		if len(s.Bases) == 0 {
			s.Bases = nil
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
