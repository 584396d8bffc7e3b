package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineCategory(t *testing.T) {
	tests := []struct {
		item     string
		expected string
	}{
		{"romaine lettuce", CategoryProduce},
		{"chicken thighs", CategoryMeat},
		{"greek yogurt", CategoryDairy},
		{"smoked paprika", CategorySpices},
		{"jasmine rice", CategoryPantry},
		{"xyz123", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetermineCategory(tt.item))
		})
	}
}

func TestDetermineCategoryIsTotal(t *testing.T) {
	known := make(map[string]struct{})
	for _, c := range CategoryOrder {
		known[c] = struct{}{}
	}

	inputs := []string{"xyz123", "!!!", "quantum flux", "olive oil", "Egg", "FLOUR"}
	for _, in := range inputs {
		category := DetermineCategory(in)
		_, ok := known[category]
		assert.True(t, ok, "category %q for input %q is not a known category", category, in)
	}
}

func TestDetermineCategoryPriorityOrder(t *testing.T) {
	// "bell pepper" matches both Produce ("pepper") and Spices ("pepper");
	// Produce is tested first so it wins.
	assert.Equal(t, CategoryProduce, DetermineCategory("bell pepper"))

	// "coconut milk" matches Dairy ("milk") before Pantry ("coconut milk").
	assert.Equal(t, CategoryDairy, DetermineCategory("coconut milk"))
}

func TestCategorizeOmitsEmptyCategories(t *testing.T) {
	ingredients := []AggregatedIngredient{
		{Item: "spinach", Amount: "2 cups"},
		{Item: "mystery powder", Amount: "1 tsp"},
	}

	list := Categorize(ingredients)

	assert.Len(t, list, 2)
	assert.Contains(t, list, CategoryProduce)
	assert.Contains(t, list, CategoryOther)
	assert.NotContains(t, list, CategoryMeat)
	assert.NotContains(t, list, CategoryDairy)
}

func TestCategorizePreservesIngredientOrderWithinCategory(t *testing.T) {
	ingredients := []AggregatedIngredient{
		{Item: "onion", Amount: "1"},
		{Item: "garlic", Amount: "3 cloves"},
		{Item: "carrot", Amount: "2"},
	}

	list := Categorize(ingredients)

	produce := list[CategoryProduce]
	assert.Len(t, produce, 3)
	assert.Equal(t, "onion", produce[0].Item)
	assert.Equal(t, "garlic", produce[1].Item)
	assert.Equal(t, "carrot", produce[2].Item)
}
