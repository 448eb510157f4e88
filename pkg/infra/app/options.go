package app

import (
	"github.com/spf13/viper"

	"github.com/kart-io/labelhub/pkg/app/cliflag"
)

// CliOptions abstracts configuration options for reading parameters from the
// command line, config files and the environment.
type CliOptions interface {
	// Flags returns the flags grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete fills in defaults that depend on other options.
	Complete() error
	// Validate validates the options.
	Validate() error
}

// ReloadableOptions is implemented by options that react to a changed
// config file. The running options are not mutated; implementations decode
// the sections they can apply at runtime from v.
type ReloadableOptions interface {
	Reload(v *viper.Viper) error
}
