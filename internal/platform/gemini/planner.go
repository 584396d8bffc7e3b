// Package gemini implements the generation.Planner interface on top of
// Google's Gemini API. One PlanMeals call issues exactly one model call;
// reattempts are the job queue's responsibility.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/mealsmith/mealsmith-api/internal/config"
	"github.com/mealsmith/mealsmith-api/internal/domain"
	"github.com/mealsmith/mealsmith-api/internal/generation"
)

// Planner implements generation.Planner using the Gemini API.
type Planner struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
}

// NewPlanner creates a Gemini-backed planner.
func NewPlanner(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Planner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Planner{
		logger: logger,
		config: cfg,
		client: client,
	}, nil
}

// PlanMeals issues a single generation call and returns the parsed,
// validated meals. Failures are classified so the caller can distinguish
// transient upstream errors from malformed or blocked responses.
func (p *Planner) PlanMeals(ctx context.Context, prompt generation.PlanPrompt) ([]domain.Meal, error) {
	if err := validatePrompt(prompt); err != nil {
		return nil, err
	}

	model := prompt.ModelID
	if model == "" {
		model = p.config.ModelName
	}

	p.logger.InfoContext(ctx, "calling Gemini API",
		"model", model,
		"meals_requested", prompt.NumberOfMeals,
		"recent_meals", len(prompt.RecentMealNames))

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buildSystemPrompt(prompt), genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(buildUserPrompt(prompt)), genCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrUpstreamCall, err)
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	meals, err := parseMeals(text)
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "Gemini API call successful", "meal_count", len(meals))
	return meals, nil
}

func validatePrompt(prompt generation.PlanPrompt) error {
	if prompt.NumberOfMeals <= 0 {
		return fmt.Errorf("%w: number of meals must be positive", generation.ErrInvalidConfig)
	}
	if prompt.ServingsPerMeal <= 0 {
		return fmt.Errorf("%w: servings per meal must be positive", generation.ErrInvalidConfig)
	}
	return nil
}

// extractText pulls the response text out of the first candidate, mapping
// the failure modes onto the generation error taxonomy.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("%w: no text parts in response", generation.ErrInvalidResponse)
	}

	return text, nil
}

// mealPlanSchema is the JSON shape the model is instructed to return.
type mealPlanSchema struct {
	Meals []mealSchema `json:"meals"`
}

type mealSchema struct {
	Day          string             `json:"day"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Ingredients  []ingredientSchema `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	PrepTime     string             `json:"prepTime"`
	CookTime     string             `json:"cookTime"`
	// Pointer so an absent nutrition object is distinguishable from an
	// all-zero one and can be rejected.
	Nutrition *nutritionSchema `json:"nutrition"`
}

type ingredientSchema struct {
	Item   string `json:"item"`
	Amount string `json:"amount"`
}

type nutritionSchema struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// parseMeals decodes the model's JSON and validates every meal. A single
// malformed meal fails the whole response.
func parseMeals(text string) ([]domain.Meal, error) {
	var parsed mealPlanSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	if len(parsed.Meals) == 0 {
		return nil, fmt.Errorf("%w: no meals in response", generation.ErrInvalidResponse)
	}

	meals := make([]domain.Meal, 0, len(parsed.Meals))
	for i, m := range parsed.Meals {
		if m.Nutrition == nil {
			return nil, fmt.Errorf("%w: meal %d: missing nutrition object",
				generation.ErrInvalidResponse, i)
		}

		meal := domain.Meal{
			Day:          m.Day,
			Name:         m.Name,
			Description:  m.Description,
			Ingredients:  make([]domain.Ingredient, 0, len(m.Ingredients)),
			Instructions: m.Instructions,
			PrepTime:     m.PrepTime,
			CookTime:     m.CookTime,
			Nutrition: domain.Nutrition{
				Calories: m.Nutrition.Calories,
				Protein:  m.Nutrition.Protein,
				Carbs:    m.Nutrition.Carbs,
				Fat:      m.Nutrition.Fat,
				Fiber:    m.Nutrition.Fiber,
			},
		}
		for _, ing := range m.Ingredients {
			meal.Ingredients = append(meal.Ingredients, domain.Ingredient{
				Item:   ing.Item,
				Amount: ing.Amount,
			})
		}

		if err := meal.Validate(); err != nil {
			return nil, fmt.Errorf("%w: meal %d: %v", generation.ErrInvalidResponse, i, err)
		}

		meals = append(meals, meal)
	}

	return meals, nil
}
