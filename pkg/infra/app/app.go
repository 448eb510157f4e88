// Package app provides application bootstrapping with Cobra, Viper, and Pflag.
//
// This package provides a unified way to:
//   - Define CLI commands with Cobra
//   - Load configuration from files, environment variables, and flags using Viper
//   - Use the functional options pattern for configuration
//
// Usage:
//
//	app := app.NewApp(
//	    app.WithName("myapp"),
//	    app.WithDescription("My application"),
//	    app.WithOptions(opts),
//	    app.WithRunFunc(run),
//	)
//	app.Run()
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// App is the main application structure.
type App struct {
	name        string
	shortDesc   string
	description string
	options     CliOptions
	runFunc     RunFunc
	cmd         *cobra.Command
	args        cobra.PositionalArgs
	silence     bool
	noVersion   bool
	noConfig    bool
	watch       bool
	v           *viper.Viper
}

// RunFunc is the application's run function.
type RunFunc func() error

// Option configures an App.
type Option func(*App)

// WithName sets the application name.
func WithName(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

// WithShortDescription sets the short description.
func WithShortDescription(desc string) Option {
	return func(a *App) {
		a.shortDesc = desc
	}
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithOptions sets the CLI options.
func WithOptions(opts CliOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the run function.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithArgs sets the positional args validation.
func WithArgs(args cobra.PositionalArgs) Option {
	return func(a *App) {
		a.args = args
	}
}

// WithSilence disables usage and error printing.
func WithSilence() Option {
	return func(a *App) {
		a.silence = true
	}
}

// WithNoVersion disables version flag.
func WithNoVersion() Option {
	return func(a *App) {
		a.noVersion = true
	}
}

// WithNoConfig disables config file loading.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// WithWatchConfig watches the loaded config file and hands changes to
// options implementing ReloadableOptions.
func WithWatchConfig() Option {
	return func(a *App) {
		a.watch = true
	}
}

// NewApp creates a new application instance.
func NewApp(opts ...Option) *App {
	a := &App{
		name: filepath.Base(os.Args[0]),
		v:    viper.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:          a.name,
		Short:        a.shortDesc,
		Long:         a.description,
		RunE:         a.runCommand,
		Args:         a.args,
		SilenceUsage: true,
	}

	if a.silence {
		cmd.SilenceErrors = true
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	a.addGlobalFlags(cmd)

	if a.options != nil {
		fss := a.options.Flags()
		for _, name := range fss.Order {
			fs := fss.FlagSets[name]
			cmd.Flags().AddFlagSet(fs)
		}
	}

	a.cmd = cmd
}

func (a *App) addGlobalFlags(cmd *cobra.Command) {
	if !a.noConfig {
		cmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	}

	if !a.noVersion {
		version.AddFlags(cmd.PersistentFlags())
	}

	cmd.PersistentFlags().BoolP("help", "h", false, "Help for "+a.name)
}

func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	if !a.noVersion {
		version.PrintAndExitIfRequested()
	}

	if !a.noConfig {
		if err := a.loadConfig(cmd); err != nil {
			return err
		}
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.watch && !a.noConfig && a.v.ConfigFileUsed() != "" {
		a.watchConfig()
	}

	if a.runFunc != nil {
		return a.runFunc()
	}

	return nil
}

// loadConfig loads configuration from file, environment, and flags.
// Explicitly set flags win over the environment, which wins over the file.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := a.v
	configFile, _ := cmd.Flags().GetString("config")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(a.name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), "."+a.name))
		v.AddConfigPath("/etc/" + a.name)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	expandEnvVars(v)

	v.SetEnvPrefix(EnvPrefix(a.name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if a.options == nil {
		return nil
	}

	changedFlags := make(map[string]string)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			changedFlags[f.Name] = f.Value.String()
		}
	})

	// AutomaticEnv only answers Get for known keys, so every option flag is
	// bound to make LABELHUB_HTTP_ADDR style variables visible to Unmarshal.
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = v.BindEnv(f.Name)
	})

	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for name, val := range changedFlags {
		if err := cmd.Flags().Set(name, val); err != nil {
			return fmt.Errorf("failed to re-apply flag %s: %w", name, err)
		}
	}

	return nil
}

// watchConfig logs config file changes and hands them to options
// implementing ReloadableOptions.
func (a *App) watchConfig() {
	reloadable, ok := a.options.(ReloadableOptions)
	a.v.OnConfigChange(func(e fsnotify.Event) {
		logger.Infow("Config file changed", "file", e.Name, "op", e.Op.String())
		if !ok {
			return
		}
		expandEnvVars(a.v)
		if err := reloadable.Reload(a.v); err != nil {
			logger.Errorw("Failed to apply changed config", "file", e.Name, "error", err.Error())
		}
	})
	a.v.WatchConfig()
}

// EnvPrefix returns the environment variable prefix of an application name.
func EnvPrefix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands ${VAR} and $VAR references in string config values.
// Unset variables are left as written.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		expanded := envPattern.ReplaceAllStringFunc(strVal, func(match string) string {
			varName := match[1:]
			if strings.HasPrefix(match, "${") {
				varName = match[2 : len(match)-1]
			}
			if envVal := os.Getenv(varName); envVal != "" {
				return envVal
			}
			return match
		})
		if expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// Run executes the application.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command returns the cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Viper returns the configuration registry of the application.
func (a *App) Viper() *viper.Viper {
	return a.v
}
