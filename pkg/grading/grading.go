package grading

// Package grading derives letter grades from continuous-assessment
// component scores. All functions are pure and total: any numeric input
// produces a value.

// Component maximums for a term's assessment breakdown.
const (
	MaxCA1        = 20.0
	MaxCA2        = 20.0
	MaxAssignment = 10.0
	MaxExam       = 50.0
)

// band maps an inclusive lower bound to a letter grade. Bands are checked
// from highest to lowest; anything below the last bound is an F.
type band struct {
	Min    float64
	Letter string
}

var bands = []band{
	{90, "A"},
	{80, "B"},
	{70, "C"},
	{60, "D"},
	{50, "E"},
}

// ClampComponent clamps a raw score into [0, max]. NaN propagation is not
// a concern here; callers pass validated numeric inputs.
func ClampComponent(raw, max float64) float64 {
	if raw < 0 {
		return 0
	}
	if raw > max {
		return max
	}
	return raw
}

// Total sums the clamped component scores into a total in [0, 100].
func Total(ca1, ca2, assignment, exam float64) float64 {
	return ClampComponent(ca1, MaxCA1) +
		ClampComponent(ca2, MaxCA2) +
		ClampComponent(assignment, MaxAssignment) +
		ClampComponent(exam, MaxExam)
}

// FromTotal maps a total score to its letter grade.
func FromTotal(total float64) string {
	for _, b := range bands {
		if total >= b.Min {
			return b.Letter
		}
	}
	return "F"
}
