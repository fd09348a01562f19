// The resforge CLI inspects, verifies and re-encodes game resource containers.
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/resforge/resforge/asset"
	"github.com/resforge/resforge/internal/config"
	"github.com/resforge/resforge/internal/parallel"
)

var versionGitCommit string
var versionBuildTime string

// settings is the merged environment and flag configuration of one invocation.
type settings struct {
	opts     asset.Options
	parallel parallel.Config
	logger   *logrus.Logger
}

// loadSettings reads RESFORGE_* variables and applies explicitly set global flags on top.
func loadSettings(c *cli.Context) (*settings, error) {
	cfg, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if c.IsSet("big-endian") {
		cfg.BigEndian = c.Bool("big-endian")
	}
	if c.IsSet("text-encoding") {
		cfg.TextEncoding = c.String("text-encoding")
	}
	if c.IsSet("truncate-fixed") {
		cfg.TruncateFixed = c.Bool("truncate-fixed")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options(logger)
	if err != nil {
		return nil, err
	}
	return &settings{opts: opts, parallel: cfg.Parallel(), logger: logger}, nil
}

func parseByteOrder(name string) (binary.ByteOrder, error) {
	switch name {
	case "le", "little":
		return binary.LittleEndian, nil
	case "be", "big":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("--byte-order should be one of [le be], got %q", name)
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "resforge",
		Usage:   "Game resource container tool",
		Version: fmt.Sprintf("%s.%s", versionGitCommit, versionBuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)"},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "Log format (text, json)"},
			&cli.BoolFlag{Name: "big-endian", Usage: "Decode and encode scalars as big-endian"},
			&cli.StringFlag{Name: "text-encoding", Value: "raw", Usage: fmt.Sprintf("String text encoding %v", config.TextEncodings())},
			&cli.BoolFlag{Name: "truncate-fixed", Usage: "Truncate oversized fixed-length strings instead of failing"},
			&cli.IntFlag{Name: "workers", Usage: "Concurrent files for verify, 0 uses one per CPU"},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Show the descriptor, checksum and contents of a container",
			ArgsUsage: "<file>",
			Action:    infoAction,
		},
		{
			Name:      "verify",
			Usage:     "Check that containers decode and re-encode byte-stably",
			ArgsUsage: "<file>...",
			Action:    verifyAction,
		},
		{
			Name:      "dump",
			Usage:     "Print a container's object graph as JSON",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "summary", Usage: "Print only the summary"},
				&cli.IntFlag{Name: "samples", Value: 0, Usage: "Evenly spaced samples per motion track to include"},
			},
			Action: dumpAction,
		},
		{
			Name:      "repack",
			Usage:     "Decode a container and write it again",
			ArgsUsage: "<in> <out>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "byte-order", Usage: "Output byte order (le, be); defaults to the input order"},
			},
			Action: repackAction,
		},
	}
	return app
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
