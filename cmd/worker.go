package cmd

import (
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mindplus/offloader/config"
	"github.com/mindplus/offloader/internal/workers"
	"github.com/mindplus/offloader/models"
	"github.com/mindplus/offloader/util/conf"
	"github.com/mindplus/offloader/util/logging"
)

var (
	workerCmdDescription = `The worker command runs one built-in worker process. It is
launched by serve for every enabled worker and is not meant
to be started by hand, other than for debugging.

Generators answer chunk requests on their port, streaming
workers consume pushed tasks, and render peers connect to the
render pool broker on the given port.

Remaining arguments are passed to the worker, e.g. the
renderer type, width and height of the multi-renderer.`
	workerCmd = &cli.Command{
		Name:        "worker",
		Usage:       "Run a built-in worker process.",
		Description: workerCmdDescription,
		Action:      workerAction,
		ArgsUsage:   "[args...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "kind",
				Aliases:  []string{"k"},
				Usage:    "the worker kind, e.g. biome-generator, ai-processor, render-peer.",
				Category: "worker",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "host",
				Usage:    "the host the worker binds, or where the broker listens.",
				Value:    "127.0.0.1",
				Category: "worker",
			},
			&cli.IntFlag{
				Name:     "port",
				Aliases:  []string{"p"},
				Usage:    "the worker port, or the broker port for render peers.",
				Category: "worker",
				Required: true,
			},
		},
	}
)

func workerAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	cfg, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return err
	}

	kind, err := models.ParseWorkerKind(ctx.String("kind"))
	if err != nil {
		return err
	}

	// the supervisor stops workers with SIGTERM
	runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting worker",
		zap.Stringer("kind", kind),
		zap.Int("port", ctx.Int("port")),
	)

	return workers.Run(runCtx, workers.Params{
		Kind:          kind,
		Host:          ctx.String("host"),
		Port:          ctx.Int("port"),
		Args:          ctx.Args().Slice(),
		Channel:       cfg.Channel,
		StatsInterval: cfg.Pool.StatsInterval,
		Log:           log,
	})
}

func init() {
	rootApp.Commands = append(rootApp.Commands, workerCmd)
}

