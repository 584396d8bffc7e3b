package gemini

import (
	"fmt"
	"strings"

	"github.com/mealsmith/mealsmith-api/internal/generation"
)

// buildSystemPrompt renders the standing meal-planning instructions from
// the merged household constraints.
func buildSystemPrompt(p generation.PlanPrompt) string {
	restrictions := "none"
	if len(p.DietaryRestrictions) > 0 {
		restrictions = strings.Join(p.DietaryRestrictions, ", ")
	}

	return fmt.Sprintf(`You are a meal planning expert. Generate a weekly dinner meal plan based on user preferences.

Requirements:
- Create %d unique dinner recipes
- Each meal serves %d %s
- Meet nutritional targets: minimum %dg protein, maximum %d calories per serving
- Respect dietary restrictions: %s
- Ensure variety (avoid recent meals if provided)

For each meal, provide:
- Name (clear, appetizing)
- Description (2-3 sentences about flavor and appeal)
- Ingredients with specific quantities (for %d %s)
- Step-by-step cooking instructions
- Prep time and cook time estimates
- Nutritional information per serving (calories, protein, carbs, fat, fiber)

Output Format: Return valid JSON matching the provided schema.`,
		p.NumberOfMeals,
		p.ServingsPerMeal, peopleWord(p.ServingsPerMeal),
		p.MinProteinPerMeal, p.MaxCaloriesPerMeal,
		restrictions,
		p.ServingsPerMeal, servingsWord(p.ServingsPerMeal),
	)
}

// buildUserPrompt renders the per-week request, including the variety hint
// built from recent meal history.
func buildUserPrompt(p generation.PlanPrompt) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Create a dinner meal plan for %s.

Requirements:
- High protein (minimum %dg per serving)
- Low calorie (maximum %d calories per serving)
- %d different dinners
- Each meal serves %d %s
- Include complete nutritional information per serving
- Include ingredient lists with quantities for %d %s
- Include step-by-step cooking instructions`,
		p.WeekLabel,
		p.MinProteinPerMeal,
		p.MaxCaloriesPerMeal,
		p.NumberOfMeals,
		p.ServingsPerMeal, peopleWord(p.ServingsPerMeal),
		p.ServingsPerMeal, servingsWord(p.ServingsPerMeal),
	)

	if len(p.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "\n- Dietary restrictions: %s", strings.Join(p.DietaryRestrictions, ", "))
	}

	if len(p.RecentMealNames) > 0 {
		b.WriteString("\n\n**IMPORTANT - Meal Variety:**\n" +
			"The following meals were recommended in recent weeks. Please ensure variety by creating DIFFERENT meals:\n")
		for i, name := range p.RecentMealNames {
			fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		}
		b.WriteString("\nAvoid repeating these exact meals or very similar variations. " +
			"Aim for diverse proteins, cooking methods, and flavor profiles.")
	}

	return b.String()
}

func peopleWord(servings int) string {
	if servings == 1 {
		return "person"
	}
	return "people"
}

func servingsWord(servings int) string {
	if servings == 1 {
		return "serving"
	}
	return "servings"
}
