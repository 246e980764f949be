package api

import "errors"

var (
	ErrContentType = errors.New("Content-Type must be application/json")
	ErrLocator     = errors.New("locator is required")
	ErrQuery       = errors.New("query is required")
	ErrLimit       = errors.New("limit must be between 0 and 50")
)
