// Package shopping turns the ingredient lists of a week's generated meals
// into one deduplicated, categorized shopping list.
package shopping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mealsmith/mealsmith-api/internal/domain"
)

// AggregatedIngredient is one deduplicated shopping-list line. Item keeps the
// spelling of the first occurrence; OriginalAmounts records every raw amount
// string that contributed to the combined Amount.
type AggregatedIngredient struct {
	Item            string   `json:"item"`
	Amount          string   `json:"amount"`
	OriginalAmounts []string `json:"original_amounts"`
	SearchLink      string   `json:"search_link,omitempty"`
}

// Leading descriptive modifiers stripped when computing the dedup key, so
// "fresh basil" and "basil" collapse into one line.
var modifierPrefix = regexp.MustCompile(`^(fresh|dried|chopped|minced|sliced|diced)\s+`)

var (
	amountNumber = regexp.MustCompile(`^(\d+\.?\d*)`)
	amountUnit   = regexp.MustCompile(`\d+\.?\d*\s+(.+)`)
)

// Aggregate combines the ingredient lists of all meals into deduplicated
// totals. The result is deterministic and independent of meal order except
// for which original spelling is displayed (first-seen wins). The returned
// slice preserves first-occurrence order.
func Aggregate(meals []domain.Meal) []AggregatedIngredient {
	index := make(map[string]int)
	aggregated := make([]AggregatedIngredient, 0)

	for _, meal := range meals {
		for _, ing := range meal.Ingredients {
			key := normalizeItem(ing.Item)

			if i, ok := index[key]; ok {
				aggregated[i].OriginalAmounts = append(aggregated[i].OriginalAmounts, ing.Amount)
				aggregated[i].Amount = combineAmounts(aggregated[i].OriginalAmounts)
				continue
			}

			index[key] = len(aggregated)
			aggregated = append(aggregated, AggregatedIngredient{
				Item:            ing.Item,
				Amount:          ing.Amount,
				OriginalAmounts: []string{ing.Amount},
			})
		}
	}

	return aggregated
}

// normalizeItem computes the dedup key: lowercase with a fixed set of
// leading descriptive modifiers stripped.
func normalizeItem(item string) string {
	lower := strings.ToLower(item)
	return strings.TrimSpace(modifierPrefix.ReplaceAllString(lower, ""))
}

// combineAmounts merges the collected amount strings. When every amount
// parses numerically and shares one unit token the numbers are summed;
// otherwise the amounts are joined with " + " so no data is ever dropped.
// No unit conversion is attempted.
func combineAmounts(amounts []string) string {
	if len(amounts) == 1 {
		return amounts[0]
	}

	unit := extractUnit(amounts[0])
	sum := 0.0
	for _, a := range amounts {
		n, ok := extractNumber(a)
		if !ok || extractUnit(a) != unit {
			return strings.Join(amounts, " + ")
		}
		sum += n
	}

	return strings.TrimSpace(fmt.Sprintf("%s %s", formatQuantity(sum), unit))
}

func extractNumber(amount string) (float64, bool) {
	match := amountNumber.FindStringSubmatch(amount)
	if match == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func extractUnit(amount string) string {
	match := amountUnit.FindStringSubmatch(amount)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// formatQuantity renders a summed quantity without a trailing ".0" for
// whole numbers ("3 cups", not "3.0 cups").
func formatQuantity(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
