package shopping

import "strings"

// The six shopping-list categories in fixed priority order. The first
// category whose keyword list matches wins; anything unmatched is Other.
const (
	CategoryProduce = "Produce"
	CategoryMeat    = "Meat & Seafood"
	CategoryDairy   = "Dairy & Eggs"
	CategorySpices  = "Spices & Seasonings"
	CategoryPantry  = "Pantry Staples"
	CategoryOther   = "Other"
)

// CategoryOrder is the declaration order used for rendered shopping lists.
var CategoryOrder = []string{
	CategoryProduce,
	CategoryMeat,
	CategoryDairy,
	CategorySpices,
	CategoryPantry,
	CategoryOther,
}

var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{CategoryProduce, []string{
		"lettuce", "tomato", "onion", "garlic", "pepper", "carrot", "celery",
		"spinach", "kale", "broccoli", "cauliflower", "zucchini", "mushroom",
		"avocado", "lemon", "lime", "potato", "sweet potato", "corn", "peas",
		"bean sprouts", "cabbage", "cucumber", "basil", "cilantro", "parsley",
		"ginger", "scallion", "shallot", "bell pepper", "jalapeno", "chili",
	}},
	{CategoryMeat, []string{
		"chicken", "beef", "pork", "turkey", "lamb", "fish", "salmon", "tuna",
		"shrimp", "scallop", "steak", "ground beef", "ground turkey", "sausage",
		"bacon", "tilapia", "cod", "mahi mahi",
	}},
	{CategoryDairy, []string{
		"milk", "cheese", "yogurt", "butter", "cream", "egg", "parmesan",
		"mozzarella", "cheddar", "feta", "goat cheese", "sour cream", "half and half",
	}},
	{CategorySpices, []string{
		"salt", "pepper", "paprika", "cumin", "oregano", "thyme", "rosemary",
		"cinnamon", "nutmeg", "cayenne", "chili powder", "curry", "turmeric",
		"coriander", "bay leaf", "vanilla", "soy sauce", "sesame oil",
		"olive oil", "vegetable oil", "vinegar", "worcestershire",
	}},
	{CategoryPantry, []string{
		"rice", "pasta", "flour", "sugar", "bread", "tortilla", "quinoa",
		"oats", "beans", "lentils", "chickpeas", "broth", "stock", "coconut milk",
		"tomato sauce", "tomato paste", "canned tomatoes", "honey", "maple syrup",
		"peanut butter", "almond butter", "tahini", "noodles",
	}},
}

// CategorizedList maps category name to that category's shopping lines.
// Empty categories are omitted; iterate with CategoryOrder for stable output.
type CategorizedList map[string][]AggregatedIngredient

// DetermineCategory classifies a single ingredient display name, testing
// substring containment against each category's keywords in priority order.
// Every input gets exactly one category; unmatched inputs get Other.
func DetermineCategory(item string) string {
	lower := strings.ToLower(item)

	for _, cat := range categoryKeywords {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name
			}
		}
	}

	return CategoryOther
}

// Categorize groups aggregated ingredients into the fixed category set,
// preserving ingredient order within each category and dropping categories
// with no members.
func Categorize(ingredients []AggregatedIngredient) CategorizedList {
	list := make(CategorizedList)

	for _, ing := range ingredients {
		category := DetermineCategory(ing.Item)
		list[category] = append(list[category], ing)
	}

	return list
}
