package household

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mealsmith/mealsmith-api/internal/domain"
)

func intPtr(v int) *int {
	return &v
}

func basePreferences() domain.UserPreferences {
	return domain.UserPreferences{
		UserID:              uuid.New(),
		NumberOfMeals:       5,
		ServingsPerMeal:     2,
		MinProteinPerMeal:   40,
		MaxCaloriesPerMeal:  600,
		DietaryRestrictions: []string{"nut-free"},
	}
}

func TestMergeIdentityWithZeroMembers(t *testing.T) {
	primary := basePreferences()

	merged := Merge(primary, nil)

	assert.Equal(t, primary.DietaryRestrictions, merged.DietaryRestrictions)
	assert.Equal(t, primary.MinProteinPerMeal, merged.MinProteinPerMeal)
	assert.Equal(t, primary.MaxCaloriesPerMeal, merged.MaxCaloriesPerMeal)
}

func TestMergeMostRestrictiveWins(t *testing.T) {
	primary := basePreferences()
	members := []domain.HouseholdMember{
		{
			Name:                "A",
			DietaryRestrictions: []string{"vegan"},
			MinProteinPerMeal:   intPtr(30),
			MaxCaloriesPerMeal:  intPtr(500),
		},
		{
			Name:                "B",
			DietaryRestrictions: []string{"nut-free", "gluten-free"},
			MinProteinPerMeal:   intPtr(50),
			MaxCaloriesPerMeal:  intPtr(700),
		},
	}

	merged := Merge(primary, members)

	assert.Equal(t, 50, merged.MinProteinPerMeal, "max of min-protein values wins")
	assert.Equal(t, 500, merged.MaxCaloriesPerMeal, "min of max-calorie values wins")
	assert.ElementsMatch(t,
		[]string{"nut-free", "vegan", "gluten-free"},
		merged.DietaryRestrictions)
}

func TestMergeNilFieldsDoNotParticipate(t *testing.T) {
	primary := basePreferences()
	members := []domain.HouseholdMember{
		{Name: "A", DietaryRestrictions: []string{"vegan"}},
		{Name: "B", MinProteinPerMeal: intPtr(20), MaxCaloriesPerMeal: intPtr(900)},
	}

	merged := Merge(primary, members)

	// A member with nil or less restrictive values never relaxes the target.
	assert.Equal(t, 40, merged.MinProteinPerMeal)
	assert.Equal(t, 600, merged.MaxCaloriesPerMeal)
}

func TestMergeOrderIndependent(t *testing.T) {
	primary := basePreferences()
	memberA := domain.HouseholdMember{
		DietaryRestrictions: []string{"vegan"},
		MinProteinPerMeal:   intPtr(55),
	}
	memberB := domain.HouseholdMember{
		DietaryRestrictions: []string{"gluten-free"},
		MaxCaloriesPerMeal:  intPtr(450),
	}

	forward := Merge(primary, []domain.HouseholdMember{memberA, memberB})
	reverse := Merge(primary, []domain.HouseholdMember{memberB, memberA})

	assert.Equal(t, forward.MinProteinPerMeal, reverse.MinProteinPerMeal)
	assert.Equal(t, forward.MaxCaloriesPerMeal, reverse.MaxCaloriesPerMeal)
	assert.ElementsMatch(t, forward.DietaryRestrictions, reverse.DietaryRestrictions)
}

func TestMergeRestrictionsAreCaseSensitive(t *testing.T) {
	primary := basePreferences()
	primary.DietaryRestrictions = []string{"Vegan"}
	members := []domain.HouseholdMember{
		{DietaryRestrictions: []string{"vegan"}},
	}

	merged := Merge(primary, members)

	assert.ElementsMatch(t, []string{"Vegan", "vegan"}, merged.DietaryRestrictions)
}
