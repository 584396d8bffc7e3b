// Package household implements the preference-merge algorithm that
// reconciles a primary user's meal-planning constraints with those of
// zero or more household members into one effective target.
package household

import (
	"github.com/mealsmith/mealsmith-api/internal/domain"
)

// EffectivePreferences is the merged constraint target handed to the
// generation step. With zero household members it equals the primary
// input unchanged.
type EffectivePreferences struct {
	DietaryRestrictions []string
	MinProteinPerMeal   int
	MaxCaloriesPerMeal  int
}

// Merge combines the primary preference set with the household members'
// constraints, most restrictive value winning:
//
//   - dietary restrictions: set union, case-sensitive, primary's entries first
//     and members' new entries in member order
//   - minimum protein: maximum over the primary and all non-nil member values
//   - maximum calories: minimum over the primary and all non-nil member values
//
// Members with a nil numeric field do not participate in that reduction.
// The function is pure and its numeric results are independent of member
// ordering.
func Merge(primary domain.UserPreferences, members []domain.HouseholdMember) EffectivePreferences {
	merged := EffectivePreferences{
		DietaryRestrictions: unionRestrictions(primary.DietaryRestrictions, members),
		MinProteinPerMeal:   primary.MinProteinPerMeal,
		MaxCaloriesPerMeal:  primary.MaxCaloriesPerMeal,
	}

	for _, m := range members {
		if m.MinProteinPerMeal != nil && *m.MinProteinPerMeal > merged.MinProteinPerMeal {
			merged.MinProteinPerMeal = *m.MinProteinPerMeal
		}
		if m.MaxCaloriesPerMeal != nil && *m.MaxCaloriesPerMeal < merged.MaxCaloriesPerMeal {
			merged.MaxCaloriesPerMeal = *m.MaxCaloriesPerMeal
		}
	}

	return merged
}

// unionRestrictions returns the union of all dietary restriction lists,
// preserving first-seen order. No deduping of near-synonyms is attempted:
// "nut-free" and "no nuts" remain distinct entries.
func unionRestrictions(primary []string, members []domain.HouseholdMember) []string {
	seen := make(map[string]struct{}, len(primary))
	union := make([]string, 0, len(primary))

	add := func(restrictions []string) {
		for _, r := range restrictions {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			union = append(union, r)
		}
	}

	add(primary)
	for _, m := range members {
		add(m.DietaryRestrictions)
	}

	return union
}
