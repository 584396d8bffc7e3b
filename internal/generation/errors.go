package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrInvalidResponse is returned when the model response cannot be parsed
	// or a meal is missing a required field. Not locally repaired: the whole
	// attempt fails and the queue's retry policy decides what happens next.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrUpstreamCall is returned when the external model call itself fails
	// or times out.
	ErrUpstreamCall = errors.New("generative model call failed")

	// ErrContentBlocked is returned when the model refuses to produce output
	// due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the planner configuration is invalid.
	ErrInvalidConfig = errors.New("invalid planner configuration")
)
