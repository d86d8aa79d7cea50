// Package level implements the experience curve: pure functions
// mapping a cumulative XP total to a level in [1,100] and to progress
// within that level. No state, no I/O.
package level

// MaxLevel is the level cap. XP keeps accumulating past it but the
// level never exceeds it.
const MaxLevel = 100

// requirements[l] is the XP needed to advance FROM level l to l+1
// (not cumulative). cumulative[l] is the total XP at which level l
// begins; cumulative[1] == 0.
var (
	requirements [MaxLevel + 1]int64
	cumulative   [MaxLevel + 1]int64
)

func init() {
	for l := 1; l <= MaxLevel; l++ {
		requirements[l] = int64(l) * 10
	}
	cumulative[1] = 0
	for l := 2; l <= MaxLevel; l++ {
		cumulative[l] = cumulative[l-1] + requirements[l-1]
	}
}

// RequiredXPForLevel returns the XP needed to complete the given
// level. Zero for levels outside [1,100].
func RequiredXPForLevel(level int) int64 {
	if level < 1 || level > MaxLevel {
		return 0
	}
	return requirements[level]
}

// CumulativeXPAtLevel returns the total XP at which the given level
// begins. CumulativeXPAtLevel(1) == 0.
func CumulativeXPAtLevel(level int) int64 {
	if level < 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return cumulative[level]
}

// LevelForXP returns the largest level whose cumulative floor does
// not exceed totalXP, clamped to [1,100].
func LevelForXP(totalXP int64) int {
	if totalXP < 0 {
		return 1
	}
	lvl := 1
	for lvl < MaxLevel && totalXP >= cumulative[lvl+1] {
		lvl++
	}
	return lvl
}

// Progress describes a user's position within their current level.
type Progress struct {
	Level                  int   `json:"level"`
	CurrentExp             int64 `json:"current_exp"`
	ExpToNextLevel         int64 `json:"exp_to_next_level"`
	CurrentLevelRequiredXP int64 `json:"current_level_required_xp"`
	ProgressPercentage     int   `json:"progress_percentage"`
}

// ProgressFor derives level progress from a cumulative XP total.
// At the cap the level saturates: required XP and exp-to-next drop to
// zero, the percentage pins at 100, and excess XP past the level-100
// floor is still reported in CurrentExp rather than discarded.
func ProgressFor(totalXP int64) Progress {
	if totalXP < 0 {
		totalXP = 0
	}

	lvl := LevelForXP(totalXP)
	current := totalXP - cumulative[lvl]

	if lvl >= MaxLevel {
		return Progress{
			Level:              MaxLevel,
			CurrentExp:         current,
			ProgressPercentage: 100,
		}
	}

	required := requirements[lvl]
	toNext := required - current
	if toNext < 0 {
		toNext = 0
	}
	pct := int(100 * current / required)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	return Progress{
		Level:                  lvl,
		CurrentExp:             current,
		ExpToNextLevel:         toNext,
		CurrentLevelRequiredXP: required,
		ProgressPercentage:     pct,
	}
}
