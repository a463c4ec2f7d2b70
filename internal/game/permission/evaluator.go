package permission

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotFound is returned by a Store when the requested record does not exist.
var ErrNotFound = errors.New("permission: record not found")

// Store resolves the records a check needs.
type Store interface {
	// Membership returns the user's membership in the campaign, or ErrNotFound.
	Membership(ctx context.Context, userID, campaignID string) (*Membership, error)
	// Character returns the ownership projection of a character, or ErrNotFound.
	Character(ctx context.Context, characterID string) (*Character, error)
}

// Recorder observes decisions.
type Recorder interface {
	ObservePermission(check string, d Decision)
}

// Evaluator runs permission checks against a Store.
//
// Store failures and panics are logged and reported as CodePermissionError.
type Evaluator struct {
	store    Store
	logger   *zap.Logger
	recorder Recorder
}

// NewEvaluator creates an Evaluator.
//
// Precondition: store and logger must be non-nil; rec may be nil.
func NewEvaluator(store Store, logger *zap.Logger, rec Recorder) *Evaluator {
	return &Evaluator{store: store, logger: logger, recorder: rec}
}

// CampaignPermission checks that userID holds at least required in campaignID.
func (e *Evaluator) CampaignPermission(ctx context.Context, userID, campaignID string, required Role) (d Decision) {
	defer e.finish("campaign", &d, zap.String("user_id", userID), zap.String("campaign_id", campaignID))

	m, err := e.store.Membership(ctx, userID, campaignID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return e.internal("load membership", err)
	}
	return CheckCampaignPermission(m, required)
}

// CharacterPermission checks that userID owns characterID or is a gamemaster
// of its campaign.
func (e *Evaluator) CharacterPermission(ctx context.Context, userID, characterID string) (d Decision) {
	defer e.finish("character", &d, zap.String("user_id", userID), zap.String("character_id", characterID))

	c, err := e.store.Character(ctx, characterID)
	if errors.Is(err, ErrNotFound) || (err == nil && c == nil) {
		return CheckCharacterPermission(nil, userID, nil)
	}
	if err != nil {
		return e.internal("load character", err)
	}
	if c.PlayerID == userID {
		return CheckCharacterPermission(c, userID, nil)
	}

	m, err := e.store.Membership(ctx, userID, c.CampaignID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return e.internal("load membership", err)
	}
	return CheckCharacterPermission(c, userID, m)
}

func (e *Evaluator) internal(op string, err error) Decision {
	e.logger.Error("permission check failed", zap.String("op", op), zap.Error(err))
	return deny(CodePermissionError, "permission check failed")
}

// finish converts a panic into a PERMISSION_ERROR decision, then logs and
// records the outcome.
func (e *Evaluator) finish(check string, d *Decision, fields ...zap.Field) {
	if r := recover(); r != nil {
		e.logger.Error("permission check panicked",
			append(fields, zap.String("check", check), zap.Error(fmt.Errorf("%v", r)))...)
		*d = deny(CodePermissionError, "permission check failed")
	}
	if !d.Success {
		e.logger.Debug("permission denied",
			append(fields, zap.String("check", check), zap.String("code", string(d.Code)))...)
	}
	if e.recorder != nil {
		e.recorder.ObservePermission(check, *d)
	}
}
