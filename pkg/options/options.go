// Package options holds the option group contract shared by every
// configurable component.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option group.
type IOptions interface {
	// Validate reports every invalid setting of the group.
	Validate() []error

	// AddFlags registers the group's flags, namespaced by prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// Join builds a flag name prefix: Join("a", "b") is "a.b." and Join() is "".
func Join(prefixes ...string) string {
	p := strings.Join(prefixes, ".")
	if p == "" {
		return ""
	}
	return p + "."
}

// ValidateAll collects the errors of every group in order. Nil groups are
// skipped.
func ValidateAll(groups ...IOptions) []error {
	var errs []error
	for _, g := range groups {
		if g == nil {
			continue
		}
		errs = append(errs, g.Validate()...)
	}
	return errs
}
