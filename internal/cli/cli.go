package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"github.com/vk/addonkit/internal/app"
)

// Version is set at build time.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// envDefaults are the flag defaults, overridable through ADDONKIT_*
// environment variables. An explicit flag still wins.
type envDefaults struct {
	ModulesPath     string `env:"MODULES_PATH" envDefault:"modules"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"text"`
	DuplicatePolicy string `env:"DUPLICATE_POLICY" envDefault:"warn"`
	Port            int    `env:"PORT" envDefault:"8080"`
	Watch           bool   `env:"WATCH"`
}

func loadEnvDefaults() (envDefaults, error) {
	var d envDefaults
	if err := env.ParseWithOptions(&d, env.Options{Prefix: "ADDONKIT_"}); err != nil {
		return envDefaults{}, fmt.Errorf("invalid environment: %w", err)
	}
	return d, nil
}

type globalFlags struct {
	modulesPath     string
	logLevel        string
	logFormat       string
	duplicatePolicy string
}

func (g *globalFlags) config(extra []string, port int) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		ModulesPath:     g.modulesPath,
		ExtraPaths:      extra,
		LogLevel:        g.logLevel,
		LogFormat:       g.logFormat,
		DuplicatePolicy: g.duplicatePolicy,
		HealthcheckPort: port,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parameter validation complete.", "config", cfg)
	return cfg, nil
}

// NewRootCommand builds the command tree. Command results go to outW, logs
// to logW. opts are forwarded to every App the commands create.
func NewRootCommand(outW, logW io.Writer, opts ...app.Option) *cobra.Command {
	flags := &globalFlags{}
	defaults, envErr := loadEnvDefaults()

	root := &cobra.Command{
		Use:   "addonkit",
		Short: "Load, validate and inspect addons",
		Long: `addonkit loads addon manifests (HCL or YAML) together with the Go
modules compiled into the binary, applies them in dependency order and
reports the resulting models, patch targets and registries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return &ExitError{Code: 2, Message: envErr.Error()}
			}
			return nil
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.modulesPath, "modules-path", defaults.ModulesPath, "Path or glob of the addon manifests ($ADDONKIT_MODULES_PATH).")
	pf.StringVar(&flags.logLevel, "log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&flags.logFormat, "log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&flags.duplicatePolicy, "duplicate-policy", defaults.DuplicatePolicy, "What to do when a registry key is registered twice. Options: 'warn', 'allow', 'reject'.")

	boot := func(cmd *cobra.Command, extra []string, port int) (*app.App, error) {
		cfg, err := flags.config(extra, port)
		if err != nil {
			return nil, err
		}
		a := app.NewApp(logW, cfg, opts...)
		if err := a.Boot(cmd.Context()); err != nil {
			return nil, &ExitError{Code: 1, Message: err.Error()}
		}
		return a, nil
	}

	root.AddCommand(
		newValidateCommand(boot),
		newInspectCommand(boot),
		newServeCommand(boot, defaults),
		newVersionCommand(),
	)
	return root
}

type bootFunc func(cmd *cobra.Command, extra []string, port int) (*app.App, error)

func newValidateCommand(boot bootFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [MANIFEST_PATH...]",
		Short: "Load every addon and report errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd, args, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d addons loaded (%s)\n", len(a.Order()), joinNames(a.Order()))
			return nil
		},
	}
}

func newServeCommand(boot bootFunc, defaults envDefaults) *cobra.Command {
	var (
		port  int
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve [MANIFEST_PATH...]",
		Short: "Load every addon and serve /health and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port <= 0 {
				return &ExitError{Code: 2, Message: "serve needs a positive --port"}
			}
			a, err := boot(cmd, args, port)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := a.Run(ctx, watch); err != nil && !errors.Is(err, context.Canceled) {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", defaults.Port, "Port for the health check and metrics server.")
	cmd.Flags().BoolVar(&watch, "watch", defaults.Watch, "Reload the addons when a manifest changes.")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "addonkit version %s\n", Version)
		},
	}
}
