package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/config"
	"github.com/mindplus/offloader/internal/shell"
	"github.com/mindplus/offloader/util/conf"
	"github.com/mindplus/offloader/util/logging"
)

const envPrefix = "OFFLOADER_"

var (
	appName  = "offloader"
	appUsage = `Offloads world generation, entity AI, chunk preloading and
chunk rendering from a game host into supervised worker processes.`
	rootApp = &cli.App{
		Name:            appName,
		Usage:           appUsage,
		HideHelpCommand: true,
		Args:            true,
		Flags: []cli.Flag{
			// general flags
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "set the log level. Options: debug, info, warn, error, panic, fatal.",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "set the log format. Options: production, development.",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.PathFlag{
				Name:    "config",
				Usage:   "load configuration from a .json, .yaml or .env file.",
				Aliases: []string{"c"},
				EnvVars: []string{envPrefix + "CONFIG"},
			},
		},
		Before: func(ctx *cli.Context) error {
			// create the logger
			log, err := createLogger(ctx)
			if err != nil {
				return err
			}

			// inject logger into cli context
			ctx.Context = logging.ContextWithLogger(ctx.Context, log)

			// parse config from defaults, file, env and global flags
			cfg, err := parseConfig(ctx, log, nil)
			if err != nil {
				return err
			}

			// inject the config into the cli context
			ctx.Context = conf.ContextWithConfig(ctx.Context, cfg)

			return nil
		},
		After: func(ctx *cli.Context) error {
			log, err := logging.LoggerFromContext(ctx.Context)
			if err != nil {
				return err
			}

			log.Sync()

			return nil
		},
	}
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

type ExecuteParams struct {
	Version  string
	Compiled time.Time
}

func Execute(params ExecuteParams) int {
	rootApp.Version = params.Version
	rootApp.Compiled = params.Compiled

	return run(context.Background(), os.Args)
}

func run(ctx context.Context, args []string) int {
	err := rootApp.RunContext(ctx, args)

	// if app exited without error, return
	if err == nil {
		return 0
	}

	// the shell already logged why it exited
	var exitErr *shell.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "exit error: %s\n", err.Error())
	}

	// exit with the code of an ExitError, 1 otherwise
	return shell.ExitCode(err)
}

// parseConfig layers defaults, the --config file, OFFLOADER_ env vars and
// the flags set on ctx. cliMap renames command flags to config keys.
func parseConfig(ctx *cli.Context, log *zap.Logger, cliMap map[string]string) (config.Config, error) {
	schema, err := config.Schema()
	if err != nil {
		return config.Config{}, fmt.Errorf("error loading config schema: %w", err)
	}

	return conf.Parse[config.Config](conf.ParseOptions{
		Cli:       ctx,
		CliMap:    cliMap,
		Defaults:  config.DefaultConfig(),
		EnvPrefix: envPrefix,
		FileName:  ctx.Path("config"),
		Schema:    schema,
		Log:       log,
	})
}

func createLogger(ctx *cli.Context) (*zap.Logger, error) {
	level := getLogLevelFromCLI(ctx)
	format := getLogFormatFromCLI(ctx)

	var config zap.Config
	if format == "development" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	config.InitialFields = map[string]any{
		"app": appName,
	}

	config.Level = level

	return config.Build()
}

func getLogFormatFromCLI(ctx *cli.Context) string {
	if format := ctx.String("log-format"); format != "" {
		return format
	}

	if format := os.Getenv(envPrefix + "LOG_FORMAT"); format != "" {
		return format
	}

	return "production"
}

func getLogLevelFromCLI(ctx *cli.Context) zap.AtomicLevel {
	lvl := ctx.String("log-level")
	if lvl == "" {
		lvl = os.Getenv(envPrefix + "LOG_LEVEL")
	}

	if atom, err := zap.ParseAtomicLevel(lvl); err == nil && lvl != "" {
		return atom
	}

	return zap.NewAtomicLevelAt(zap.InfoLevel)
}
