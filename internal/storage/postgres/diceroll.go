package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
	"github.com/cory-johannsen/traveller/internal/game/dice"
)

// DiceRollRepository persists the audit trail of rolls and task checks.
type DiceRollRepository struct {
	db *pgxpool.Pool
}

// NewDiceRollRepository creates a DiceRollRepository backed by the given pool.
func NewDiceRollRepository(db *pgxpool.Pool) *DiceRollRepository {
	return &DiceRollRepository{db: db}
}

const rollColumns = `id, campaign_id, user_id, character_id, purpose, notation, individual,
	total, modifiers, final_result, difficulty, success, effect, created_at`

func scanRoll(row rowScanner) (*campaign.RollRecord, error) {
	var rec campaign.RollRecord
	var characterID *string
	err := row.Scan(
		&rec.ID, &rec.CampaignID, &rec.UserID, &characterID, &rec.Purpose,
		&rec.Result.Notation, &rec.Result.Individual, &rec.Result.Total,
		&rec.Result.AppliedModifiers, &rec.Result.FinalResult,
		&rec.Difficulty, &rec.Success, &rec.Effect, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if characterID != nil {
		rec.CharacterID = *characterID
	}
	return &rec, nil
}

// Record inserts a roll.
//
// Precondition: r.ID, r.CampaignID and r.UserID must be set.
// Postcondition: Returns the stored record.
func (r *DiceRollRepository) Record(ctx context.Context, rec *campaign.RollRecord) (*campaign.RollRecord, error) {
	mods := rec.Result.AppliedModifiers
	if mods == nil {
		mods = []dice.Modifier{}
	}
	out, err := scanRoll(r.db.QueryRow(ctx, `
		INSERT INTO dice_rolls
			(id, campaign_id, user_id, character_id, purpose, notation, individual,
			 total, modifiers, final_result, difficulty, success, effect, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING `+rollColumns,
		rec.ID, rec.CampaignID, rec.UserID, nullable(rec.CharacterID), rec.Purpose,
		rec.Result.Notation, rec.Result.Individual, rec.Result.Total,
		mods, rec.Result.FinalResult,
		rec.Difficulty, rec.Success, rec.Effect, rec.CreatedAt,
	))
	if err != nil {
		if isForeignKeyError(err) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("inserting dice roll: %w", err)
	}
	return out, nil
}

// Recent returns up to n rolls of a campaign as feed entries, newest first.
// It lets the audit table serve the recent-roll feed when no Redis is configured.
func (r *DiceRollRepository) Recent(ctx context.Context, campaignID string, n int) ([]campaign.FeedEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.created_at, u.username, COALESCE(c.name, ''), d.purpose, d.notation,
		       d.individual, d.final_result, d.difficulty, d.success, d.effect
		FROM dice_rolls d
		JOIN users u ON u.id = d.user_id
		LEFT JOIN characters c ON c.id = d.character_id
		WHERE d.campaign_id = $1
		ORDER BY d.created_at DESC LIMIT $2`,
		campaignID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("listing dice rolls: %w", err)
	}
	defer rows.Close()

	out := make([]campaign.FeedEntry, 0)
	for rows.Next() {
		var e campaign.FeedEntry
		var difficulty, effect *int
		if err := rows.Scan(&e.At, &e.Username, &e.Character, &e.Purpose, &e.Notation,
			&e.Individual, &e.FinalResult, &difficulty, &e.Success, &effect); err != nil {
			return nil, fmt.Errorf("scanning dice roll row: %w", err)
		}
		if difficulty != nil {
			e.Difficulty = *difficulty
		}
		if effect != nil {
			e.Effect = *effect
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Push is a no-op; Record already wrote the roll.
func (r *DiceRollRepository) Push(context.Context, string, campaign.FeedEntry) error {
	return nil
}
