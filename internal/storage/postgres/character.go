package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/permission"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = campaign.ErrCharacterNotFound

const characterColumns = `id, campaign_id, player_id, name, species, homeworld, age,
	strength, dexterity, endurance, intelligence, education, social_standing,
	skills, credits, notes, created_at, updated_at`

// CharacterRepository provides character persistence operations.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

func scanCharacter(row rowScanner) (*character.Character, error) {
	var c character.Character
	ch := &c.Characteristics
	err := row.Scan(
		&c.ID, &c.CampaignID, &c.PlayerID, &c.Name, &c.Species, &c.Homeworld, &c.Age,
		&ch.Strength, &ch.Dexterity, &ch.Endurance, &ch.Intelligence, &ch.Education, &ch.SocialStanding,
		&c.Skills, &c.Credits, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Skills == nil {
		c.Skills = make(map[string]int)
	}
	return &c, nil
}

// Create inserts a new character and returns it as stored.
//
// Precondition: c.ID must be set; c.CampaignID and c.PlayerID must reference existing rows.
// Postcondition: Returns the created character, or ErrCampaignNotFound for a dangling reference.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	skills := c.Skills
	if skills == nil {
		skills = map[string]int{}
	}
	ch := c.Characteristics
	out, err := scanCharacter(r.db.QueryRow(ctx, `
		INSERT INTO characters
			(id, campaign_id, player_id, name, species, homeworld, age,
			 strength, dexterity, endurance, intelligence, education, social_standing,
			 skills, credits, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING `+characterColumns,
		c.ID, c.CampaignID, c.PlayerID, c.Name, c.Species, c.Homeworld, c.Age,
		ch.Strength, ch.Dexterity, ch.Endurance, ch.Intelligence, ch.Education, ch.SocialStanding,
		skills, c.Credits, c.Notes, c.CreatedAt, c.UpdatedAt,
	))
	if err != nil {
		if isForeignKeyError(err) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// GetByID retrieves a character by its primary key.
//
// Postcondition: Returns the Character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*character.Character, error) {
	c, err := scanCharacter(r.db.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// Update replaces the mutable fields of a character.
//
// Precondition: c.ID must be set.
// Postcondition: Returns the stored character, or ErrCharacterNotFound if no row matched.
func (r *CharacterRepository) Update(ctx context.Context, c *character.Character) (*character.Character, error) {
	ch := c.Characteristics
	out, err := scanCharacter(r.db.QueryRow(ctx, `
		UPDATE characters SET
			name = $2, homeworld = $3, age = $4,
			strength = $5, dexterity = $6, endurance = $7,
			intelligence = $8, education = $9, social_standing = $10,
			skills = $11, credits = $12, notes = $13, updated_at = $14
		WHERE id = $1
		RETURNING `+characterColumns,
		c.ID, c.Name, c.Homeworld, c.Age,
		ch.Strength, ch.Dexterity, ch.Endurance, ch.Intelligence, ch.Education, ch.SocialStanding,
		c.Skills, c.Credits, c.Notes, c.UpdatedAt,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("updating character: %w", err)
	}
	return out, nil
}

// ListByCampaign returns all characters in a campaign, ordered by name.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE campaign_id = $1 ORDER BY name ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// Ownership returns the ownership projection used by permission checks.
//
// Postcondition: Returns the projection or ErrCharacterNotFound.
func (r *CharacterRepository) Ownership(ctx context.Context, id string) (*permission.Character, error) {
	var c permission.Character
	err := r.db.QueryRow(ctx,
		`SELECT id, player_id, campaign_id FROM characters WHERE id = $1`, id,
	).Scan(&c.ID, &c.PlayerID, &c.CampaignID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character owner: %w", err)
	}
	return &c, nil
}
