package weekly

import (
	"errors"
	"fmt"
	"time"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

// ErrInvalidRecurrencePolicy is returned for an unrecognized policy tag. The
// expander fails closed: zero occurrences are generated.
var ErrInvalidRecurrencePolicy = errors.New("invalid recurrence policy")

// RepeatPolicy is the user-facing repeat choice for a weekly budget entry.
type RepeatPolicy string

const (
	RepeatNone     RepeatPolicy = "Does not repeat"
	RepeatDaily    RepeatPolicy = "Daily"
	RepeatWeekly   RepeatPolicy = "Weekly"
	RepeatMonthly  RepeatPolicy = "Monthly"
	RepeatAnnually RepeatPolicy = "Annually"
	RepeatWeekday  RepeatPolicy = "Every weekday"
)

// Horizons per policy: how many future occurrences each one generates.
const (
	dailyHorizon    = 30
	weeklyHorizon   = 12
	monthlyHorizon  = 12
	annuallyHorizon = 5
	weekdayHorizon  = 30
)

// Expand produces the bounded, deterministic set of future entries implied by
// the policy. Each occurrence is a shallow copy of the base with a derived id
// and a recomputed (week, month, year) bucket.
func Expand(base models.WeeklyBudgetEntry, policy RepeatPolicy) ([]models.WeeklyBudgetEntry, error) {
	if policy == RepeatNone || policy == "" {
		return nil, nil
	}

	start, err := base.Date()
	if err != nil {
		return nil, err
	}

	switch policy {
	case RepeatDaily:
		out := make([]models.WeeklyBudgetEntry, 0, dailyHorizon)
		for i := 1; i <= dailyHorizon; i++ {
			d := start.AddDate(0, 0, i)
			out = append(out, occurrence(base, "daily", i, d, true))
		}
		return out, nil

	case RepeatWeekly:
		out := make([]models.WeeklyBudgetEntry, 0, weeklyHorizon)
		for i := 1; i <= weeklyHorizon; i++ {
			d := start.AddDate(0, 0, 7*i)
			out = append(out, occurrence(base, "weekly", i, d, true))
		}
		return out, nil

	case RepeatMonthly:
		// Week stays whatever the base had; only month/year advance.
		out := make([]models.WeeklyBudgetEntry, 0, monthlyHorizon)
		for i := 1; i <= monthlyHorizon; i++ {
			d := start.AddDate(0, i, 0)
			out = append(out, occurrence(base, "monthly", i, d, false))
		}
		return out, nil

	case RepeatAnnually:
		// Month and week stay put; only the year advances.
		out := make([]models.WeeklyBudgetEntry, 0, annuallyHorizon)
		for i := 1; i <= annuallyHorizon; i++ {
			occ := base
			occ.ID = occurrenceID(base.ID, "annually", i)
			occ.Year = base.Year + i
			out = append(out, occ)
		}
		return out, nil

	case RepeatWeekday:
		out := make([]models.WeeklyBudgetEntry, 0, weekdayHorizon)
		d := start
		for i := 1; len(out) < weekdayHorizon; {
			d = d.AddDate(0, 0, 1)
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
				continue
			}
			out = append(out, occurrence(base, "weekday", i, d, true))
			i++
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidRecurrencePolicy, string(policy))
}

// occurrence copies the base onto a new date. recomputeWeek is false for the
// monthly policy, where the week bucket is carried over from the base.
func occurrence(base models.WeeklyBudgetEntry, tag string, index int, d time.Time, recomputeWeek bool) models.WeeklyBudgetEntry {
	occ := base
	occ.ID = occurrenceID(base.ID, tag, index)
	occ.Month = d.Month().String()
	occ.Year = d.Year()
	if recomputeWeek {
		occ.Week = models.WeekOfDate(d)
	}
	return occ
}

func occurrenceID(baseID, tag string, index int) string {
	return fmt.Sprintf("%s-%s-%d", baseID, tag, index)
}
