package services

import (
	"encoding/json"
	"strconv"
)

// RewardKind names one sanitized numeric field of a generated quest payload.
type RewardKind string

// Sanitized field kinds, one per archetype/field pair with fixed bounds.
const (
	KindQuizRequirement     RewardKind = "quiz_complete.requirement"
	KindQuizXP              RewardKind = "quiz_complete.xp"
	KindQuizGems            RewardKind = "quiz_complete.gems"
	KindCategoryRequirement RewardKind = "category_focus.requirement"
	KindCategoryXP          RewardKind = "category_focus.xp"
	KindCategoryGems        RewardKind = "category_focus.gems"
	KindAccuracyRequirement RewardKind = "accuracy_achieve.requirement"
	KindAccuracyXP          RewardKind = "accuracy_achieve.xp"
	KindAccuracyGems        RewardKind = "accuracy_achieve.gems"
)

// rewardBounds is the clamp range and default for one kind.
type rewardBounds struct {
	min, max, def int
}

// Generated content is untrusted; every numeric field that reaches persistence
// passes through exactly one of these entries.
var rewardBoundsTable = map[RewardKind]rewardBounds{
	KindQuizRequirement:     {min: 1, max: 10, def: 1},
	KindQuizXP:              {min: 10, max: 200, def: 50},
	KindQuizGems:            {min: 1, max: 50, def: 5},
	KindCategoryRequirement: {min: 3, max: 15, def: 5},
	KindCategoryXP:          {min: 20, max: 150, def: 60},
	KindCategoryGems:        {min: 3, max: 25, def: 10},
	KindAccuracyRequirement: {min: 70, max: 95, def: 80},
	KindAccuracyXP:          {min: 30, max: 120, def: 70},
	KindAccuracyGems:        {min: 5, max: 20, def: 12},
}

// SanitizeReward coerces an untrusted generated value into the declared bounds
// for the given kind. Missing, non-numeric, or out-of-range inputs yield the
// kind's default. The result is always inside [min, max]; this never fails.
func SanitizeReward(raw interface{}, kind RewardKind) int {
	bounds, ok := rewardBoundsTable[kind]
	if !ok {
		// Unknown kinds have no safe range; refuse to pass anything through.
		return 0
	}

	value, ok := coerceInt(raw)
	if !ok {
		return bounds.def
	}
	if value < bounds.min || value > bounds.max {
		return bounds.def
	}
	return value
}

// coerceInt extracts an integer from the value shapes a decoded JSON payload
// can produce.
func coerceInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		return 0, false
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
		return 0, false
	}
	return 0, false
}
