package bonds

import "errors"

var (
	ErrBondNotFound    = errors.New("Bond not found")
	ErrNameRequired    = errors.New("Name is required")
	ErrInvalidCurrency = errors.New("Currency must be a 3-letter ISO code")
	ErrInvalidRange    = errors.New("Minimum rate must not exceed maximum rate")
)
