package cmd

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/app"
	"github.com/mindplus/offloader/internal/shell"
	"github.com/mindplus/offloader/util/logging"
)

var (
	serveCmdDescription = `The serve command starts the worker processes, both
coordinators and the render pool, and exposes them on an http
server: /health reports worker liveness and the pool state,
/rpc accepts JSON-RPC calls from the game host.

The command blocks until it receives SIGINT or SIGTERM, then
stops the coordinators and every worker process.`
	serveCmd = &cli.Command{
		Name:        "serve",
		Usage:       "Start the workers and the admin http server.",
		Description: serveCmdDescription,
		Action:      serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "host",
				Aliases:  []string{"H"},
				Usage:    "The host to listen on.",
				Value:    "localhost",
				Category: "http",
				EnvVars:  []string{"HTTP_HOST"},
			},
			&cli.IntFlag{
				Name:     "port",
				Aliases:  []string{"P"},
				Usage:    "The port to listen on.",
				Value:    8080,
				Category: "http",
				EnvVars:  []string{"HTTP_PORT"},
			},
			&cli.BoolFlag{
				Name:     "h2c",
				Usage:    "Enable HTTP/2 cleartext upgrade.",
				Value:    false,
				Category: "http",
				EnvVars:  []string{"HTTP_H2C"},
			},
		},
	}
)

// serveFlagMap renames the serve flags to their config keys.
var serveFlagMap = map[string]string{
	"host": "http.host",
	"port": "http.port",
	"h2c":  "http.h2c",
}

func serveAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	// parse again to pick up the serve flags
	cfg, err := parseConfig(ctx, log, serveFlagMap)
	if err != nil {
		return err
	}

	log.Info("starting offloader",
		zap.String("http_host", cfg.Http.Host),
		zap.Int("http_port", cfg.Http.Port),
	)

	return shell.New(log, app.Shared(cfg)).Run(ctx.Context, app.Serve(cfg.Http))
}

func init() {
	rootApp.Commands = append(rootApp.Commands, serveCmd)
}
