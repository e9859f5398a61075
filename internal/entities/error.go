package entities

import "errors"

var (
	ErrNotFound            = errors.New("entity not found")
	ErrUpstreamStatus      = errors.New("upstream returned non-OK status")
	ErrUpstreamUnavailable = errors.New("unable to retrieve currency rates")
	ErrRateNotFound        = errors.New("rate not found for selected currency")
	ErrUnknownCurrency     = errors.New("unknown currency code")
)
