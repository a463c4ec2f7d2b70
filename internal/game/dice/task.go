package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// TaskNotation is the roll used by every task check.
const TaskNotation = "2d6"

// DefaultDifficulty is the Average task target number.
const DefaultDifficulty = 8

var taskExpr = MustParse(TaskNotation)

// Difficulty is a named task target number.
type Difficulty struct {
	Name   string
	Target int
}

// Difficulties lists the standard task difficulties, easiest first.
var Difficulties = []Difficulty{
	{Name: "Simple", Target: 2},
	{Name: "Easy", Target: 4},
	{Name: "Routine", Target: 6},
	{Name: "Average", Target: 8},
	{Name: "Difficult", Target: 10},
	{Name: "Very Difficult", Target: 12},
	{Name: "Formidable", Target: 14},
}

// ParseDifficulty resolves a difficulty by name (case and spacing insensitive,
// e.g. "very-difficult") or by an explicit numeric target.
//
// Postcondition: Returns the target number and true, or 0 and false.
func ParseDifficulty(s string) (int, bool) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for _, d := range Difficulties {
		if strings.ReplaceAll(strings.ToLower(d.Name), " ", "") == norm {
			return d.Target, true
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	return 0, false
}

// DifficultyName returns the name of the standard difficulty with the given
// target, or the number itself.
func DifficultyName(target int) string {
	for _, d := range Difficulties {
		if d.Target == target {
			return d.Name
		}
	}
	return fmt.Sprintf("%d+", target)
}

// TaskResult is a RollResult extended with the outcome of a task check.
//
// Postcondition: Success == (FinalResult >= Difficulty) and
// Effect == FinalResult - Difficulty.
type TaskResult struct {
	RollResult
	Difficulty int  `json:"difficulty"`
	Success    bool `json:"success"`
	Effect     int  `json:"effect"`
}

// String appends the outcome to the roll audit string.
func (t TaskResult) String() string {
	outcome := "failure"
	if t.Success {
		outcome = "success"
	}
	return fmt.Sprintf("%s vs %d: %s (effect %+d)", t.RollResult.String(), t.Difficulty, outcome, t.Effect)
}

// TaskCheck rolls 2d6 with skill and characteristic modifiers against difficulty.
//
// Modifiers are applied in the order skill, characteristic, extra...
// Precondition: src must be non-nil.
// Postcondition: len(result.Individual) == 2.
func TaskCheck(src Source, skill, characteristicDM, difficulty int, extra ...Modifier) TaskResult {
	mods := make([]Modifier, 0, len(extra)+2)
	mods = append(mods,
		Modifier{Name: ModifierSkill, Value: skill},
		Modifier{Name: ModifierCharacteristic, Value: characteristicDM},
	)
	mods = append(mods, extra...)

	roll := Roll(taskExpr, src, mods...)
	return TaskResult{
		RollResult: roll,
		Difficulty: difficulty,
		Success:    roll.FinalResult >= difficulty,
		Effect:     roll.FinalResult - difficulty,
	}
}
