package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/indaco/cpmigrate/internal/semver"
	"github.com/indaco/cpmigrate/internal/tui"
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Validate checks every setting and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if _, err := semver.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, &ValidationError{Field: "policy", Value: c.Policy, Reason: "expected semver or numeric"})
	}

	if err := validatePattern(c.Pattern); err != nil {
		errs = append(errs, &ValidationError{Field: "pattern", Value: c.Pattern, Reason: err.Error()})
	}

	for _, ex := range c.Exclude {
		if err := validatePattern(ex); err != nil {
			errs = append(errs, &ValidationError{Field: "exclude", Value: ex, Reason: err.Error()})
		}
	}

	switch {
	case strings.TrimSpace(c.Output) == "":
		errs = append(errs, &ValidationError{Field: "output", Value: c.Output, Reason: "must not be empty"})
	case strings.ContainsAny(c.Output, `/\`), c.Output == ".", c.Output == "..":
		errs = append(errs, &ValidationError{Field: "output", Value: c.Output, Reason: "must be a file name, not a path"})
	}

	if c.MaxDepth < 0 {
		errs = append(errs, &ValidationError{Field: "max-depth", Value: fmt.Sprint(c.MaxDepth), Reason: "must be zero (unlimited) or positive"})
	}

	if _, ok := tui.LookupTheme(c.Theme); c.Theme != "" && !ok {
		errs = append(errs, &ValidationError{Field: "theme", Value: c.Theme, Reason: "expected one of " + strings.Join(tui.ThemeNames(), ", ")})
	}

	return errors.Join(errs...)
}

func validatePattern(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("must not be empty")
	}
	_, err := filepath.Match(p, "probe")
	return err
}
