package generator

import "errors"

var (
	// ErrInvalidConfig is returned when a client cannot be built from its settings.
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrInvalidResponse is returned when model output cannot be parsed.
	ErrInvalidResponse = errors.New("invalid response from model")

	// ErrContentBlocked is returned when the provider refused the request on safety grounds.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrEmptyImage is returned when the image model produced no image.
	ErrEmptyImage = errors.New("image model returned no image")

	// ErrFetchFailed is returned when a URL input cannot be turned into text.
	ErrFetchFailed = errors.New("failed to fetch source page")
)
