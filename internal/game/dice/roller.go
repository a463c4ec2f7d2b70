package dice

// RollDie returns a uniformly distributed value in [1, sides].
//
// Precondition: sides >= 1; src must be non-nil.
func RollDie(sides int, src Source) int {
	return src.Intn(sides) + 1
}

// Roll evaluates an Expression using the given Source.
//
// An inline notation modifier is recorded first as {base, m}. A zero inline
// modifier ("2d6+0") adds nothing to the result and is not recorded, so
// "2d6" and "2d6+0" produce the same modifier list. mods are appended after
// it in the order given.
//
// Precondition: expr must come from Parse, which bounds Count and Sides;
// src must be non-nil.
// Postcondition: len(result.Individual) == expr.Count and every element is in
// [1, expr.Sides].
func Roll(expr Expression, src Source, mods ...Modifier) RollResult {
	individual := make([]int, expr.Count)
	total := 0
	for i := range individual {
		individual[i] = RollDie(expr.Sides, src)
		total += individual[i]
	}

	applied := make([]Modifier, 0, len(mods)+1)
	if expr.Modifier != 0 {
		applied = append(applied, Modifier{Name: ModifierBase, Value: expr.Modifier})
	}
	applied = append(applied, mods...)

	final := total
	for _, m := range applied {
		final += m.Value
	}

	return RollResult{
		Notation:         expr.Raw,
		Individual:       individual,
		Total:            total,
		AppliedModifiers: applied,
		FinalResult:      final,
	}
}

// RollDice parses notation and rolls it in a single call.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a RollResult, or an error wrapping ErrInvalidNotation.
func RollDice(notation string, src Source, mods ...Modifier) (RollResult, error) {
	e, err := Parse(notation)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src, mods...), nil
}
