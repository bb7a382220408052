package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// NonFieldErrors keys errors that concern several fields at once.
const NonFieldErrors = "__all__"

var (
	ErrNoActiveCatalogue       = errors.New("no active ESG version")
	ErrSeveralActiveCatalogues = errors.New("more than one active ESG version")
)

// FieldErrors maps a field name to the problem found with it.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

// ConfigurationError means the ESG catalogue is set up wrongly. It is not
// something the submitter of an application can fix.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "ESG catalogue misconfigured: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err stems from a misconfigured catalogue.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
