// Command aesdsocketd runs the line-framed TCP logging device server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aesd-project/aesdsocketd/internal/config"
	"github.com/aesd-project/aesdsocketd/internal/daemon"
	"github.com/aesd-project/aesdsocketd/internal/device"
	"github.com/aesd-project/aesdsocketd/internal/logging"
	"github.com/aesd-project/aesdsocketd/internal/server"
	"github.com/aesd-project/aesdsocketd/internal/xerrors"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.ParseFlags(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aesdsocketd: %v\n", err)
		return 2
	}

	if cfg.Daemonize {
		if err := daemon.Daemonize(); err != nil {
			fmt.Fprintf(os.Stderr, "aesdsocketd: %v\n", err)
			return 1
		}
		// Daemonize either exits this process (the original parent) or
		// returns nil because we are already the detached child.
	}

	log, err := logging.Init(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aesdsocketd: failed to initialize logging: %v\n", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	dev := device.New(cfg.RingCapacity)
	sup := server.NewSupervisor(cfg.Port, cfg.ChunkSize, dev, log)

	if err := sup.Run(context.Background()); err != nil {
		var fatal xerrors.FatalStartup
		if errors.As(err, &fatal) {
			log.Errorw("fatal startup error", "error", err)
			return 1
		}
		log.Infow("exited", "reason", err)
	}

	return 0
}
