package dice

import "go.uber.org/zap"

// Recorder receives roll outcomes for metrics collection.
type Recorder interface {
	ObserveRoll(notation string, finalResult int)
	ObserveTaskCheck(success bool, effect int)
}

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with notation, dice values, modifiers, and final result.
type Roller struct {
	src      Source
	logger   *zap.Logger
	recorder Recorder
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
// rec may be nil.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger, rec Recorder) *Roller {
	return &Roller{src: src, logger: logger, recorder: rec}
}

// Source returns the underlying randomness provider.
func (r *Roller) Source() Source {
	return r.src
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Roll(expr Expression, mods ...Modifier) RollResult {
	result := Roll(expr, r.src, mods...)
	r.logger.Debug("dice roll",
		zap.String("notation", result.Notation),
		zap.Ints("dice", result.Individual),
		zap.Int("total", result.Total),
		zap.Int("modifiers", result.ModifierTotal()),
		zap.Int("final", result.FinalResult),
	)
	if r.recorder != nil {
		r.recorder.ObserveRoll(result.Notation, result.FinalResult)
	}
	return result
}

// RollDice parses notation and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or an error wrapping ErrInvalidNotation.
func (r *Roller) RollDice(notation string, mods ...Modifier) (RollResult, error) {
	e, err := Parse(notation)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e, mods...), nil
}

// TaskCheck performs a logged 2d6 task check.
func (r *Roller) TaskCheck(skill, characteristicDM, difficulty int, extra ...Modifier) TaskResult {
	result := TaskCheck(r.src, skill, characteristicDM, difficulty, extra...)
	r.logger.Debug("task check",
		zap.Ints("dice", result.Individual),
		zap.Int("skill", skill),
		zap.Int("characteristic_dm", characteristicDM),
		zap.Int("difficulty", difficulty),
		zap.Int("final", result.FinalResult),
		zap.Bool("success", result.Success),
		zap.Int("effect", result.Effect),
	)
	if r.recorder != nil {
		r.recorder.ObserveTaskCheck(result.Success, result.Effect)
	}
	return result
}
