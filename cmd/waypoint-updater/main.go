// Package main replays a rosbag through the waypoint updater and writes the published
// trajectories as JSON lines.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/trajectory/config"
	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/ros"
	"go.viam.com/trajectory/updater"
)

const (
	flagConfig  = "config"
	flagBag     = "bag"
	flagOut     = "out"
	flagFrameID = "frame-id"
	flagLogFile = "log-file"
	flagDebug   = "debug"
)

func main() {
	app := &cli.App{
		Name:  "waypoint-updater",
		Usage: "replay vehicle poses from a rosbag and publish lookahead trajectories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load updater configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:     flagBag,
				Usage:    "rosbag `FILE` holding the pose, path and stop topics",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagOut,
				Value: "-",
				Usage: "write trajectories to `FILE`, - for stdout",
			},
			&cli.StringFlag{
				Name:  flagFrameID,
				Value: "world",
				Usage: "frame id stamped on published trajectories",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated by size",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Action: runAction,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runAction(c *cli.Context) error {
	// stdout may carry trajectories, so logs go to stderr.
	logger := logging.NewBlankLogger("waypoint-updater")
	logger.AddAppender(logging.NewStderrAppender())
	logger.SetLevel(logging.INFO)
	if name := c.String(flagLogFile); name != "" {
		appender, closer := logging.NewFileAppender(name)
		defer utils.UncheckedErrorFunc(closer.Close)
		logger.AddAppender(appender)
	}

	cfg, err := loadConfig(c.Context, c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(cfg.Level())
	}

	out := io.Writer(os.Stdout)
	if name := c.String(flagOut); name != "-" {
		//nolint:gosec
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		out = f
	}

	rb, err := ros.ReadBag(c.String(flagBag))
	if err != nil {
		return err
	}
	rec, err := ros.RecordingFromBag(rb, cfg.Topics)
	if err != nil {
		return err
	}
	logger.Infow("bag read",
		"poses", len(rec.Poses), "paths", len(rec.Paths), "stops", len(rec.Stops))

	sink := ros.NewJSONSink(out, cfg.Topics.Output, c.String(flagFrameID))
	u, err := updater.New(*cfg, nil, sink, logger.Sublogger("updater"))
	if err != nil {
		return err
	}

	replayStats, replayErr := ros.Replay(c.Context, rec, u, logger)
	if replayErr == nil {
		replayErr = u.Flush(c.Context)
	}
	closeErr := u.Close()

	fmt.Fprintln(c.App.ErrWriter, summary(replayStats, u.Stats(), u.Diagnostics()))
	return multierr.Combine(replayErr, closeErr)
}

func loadConfig(ctx context.Context, file string, logger logging.Logger) (*config.Config, error) {
	if file == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Read(ctx, file, logger)
}

func summary(replay ros.ReplayStats, stats updater.Stats, diag updater.Diagnostics) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"poses replayed", replay.Poses},
		{"paths replayed", replay.Paths},
		{"paths rejected", replay.RejectedPath},
		{"stop updates", replay.Stops},
		{"cycles", stats.Cycles},
		{"final state", stats.State},
		{"last index", stats.LastIndex},
		{"trajectories delivered", stats.Publisher.Delivered},
		{"trajectories dropped", stats.Publisher.Dropped},
		{"malformed poses", diag.MalformedPoses},
		{"empty path skips", diag.EmptyPathSkips},
		{"cycle latency mean", stats.LatencyMean},
		{"cycle latency p99", stats.LatencyP99},
	})
	return t.Render()
}
