package season

import (
	"fmt"
	"time"
)

// ConfigurationError reports an invalid parameter or parameter combination.
// It is always raised before any raster is processed.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Param, e.Reason)
}

// AlignmentError reports vegetation and weather series that cannot be
// aligned within the configured window.
type AlignmentError struct {
	Window     Window
	Vegetation Span
	Weather    Span
	Reason     string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("cannot align inputs for season %s..%s: %s (vegetation %s, weather %s)",
		e.Window.Ref.Format(time.DateOnly), e.Window.Stop.Format(time.DateOnly), e.Reason, e.Vegetation, e.Weather)
}

// Span is the time range covered by a series. A zero Span means the series
// was empty.
type Span struct {
	First time.Time
	Last  time.Time
}

func (s Span) String() string {
	if s.First.IsZero() {
		return "empty"
	}
	return s.First.Format(time.DateOnly) + ".." + s.Last.Format(time.DateOnly)
}
