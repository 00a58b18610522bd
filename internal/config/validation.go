package config

import (
	"fmt"
	"strings"

	"github.com/ayusman/repcoach/internal/logging"
	"github.com/ayusman/repcoach/internal/segment"
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidationErrors when any
// field is out of range.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Message: "must not be empty"})
	}
	if c.Store.Path == "" {
		errs = append(errs, ValidationError{Field: "store.path", Message: "must not be empty"})
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Message: err.Error()})
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		errs = append(errs, ValidationError{Field: "logging.format", Message: err.Error()})
	}
	if t := c.Analysis.CompletionThreshold; t <= 0 || t > 1 {
		errs = append(errs, ValidationError{Field: "analysis.completion_threshold", Message: "must be in (0, 1]"})
	}
	if _, err := segment.ParseScaleMode(c.Analysis.DefaultScaleMode); err != nil {
		errs = append(errs, ValidationError{Field: "analysis.default_scale_mode", Message: "must be measurement or exercise"})
	}
	if c.Analysis.ScreenWidth < 0 {
		errs = append(errs, ValidationError{Field: "analysis.screen_width", Message: "must not be negative"})
	}
	if c.Analysis.ScreenHeight < 0 {
		errs = append(errs, ValidationError{Field: "analysis.screen_height", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
