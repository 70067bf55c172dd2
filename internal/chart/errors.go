package chart

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownChartType = errors.New("unknown chart type")
	ErrConfigNotFound   = errors.New("chart configuration not found")
)

// NotAllowedError reports that a chart type is ineligible for the current
// data shape. It carries the full eligibility result so callers can surface
// every contributing reason at once, never just the first.
type NotAllowedError struct {
	Eligibility Eligibility
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("chart %s not allowed: %s",
		e.Eligibility.ChartType, strings.Join(e.Eligibility.Reasons, "; "))
}

// ConfigError reports malformed chart-type configuration. It is recovered
// locally: the affected chart type becomes categorically ineligible.
type ConfigError struct {
	ChartType Type
	Err       error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chart config %s: %v", e.ChartType, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
