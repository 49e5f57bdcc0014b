// Castlink: CLI entry point.
//
// This tool streams audio and video between two peers over WebRTC. A relay
// answers both peers over WebSocket signaling and forwards the streamer's
// video to the viewer.
//
// It can be launched interactively (no subcommand) or non-interactively via
// the streamer, viewer and relay subcommands. Every flag can also be set
// through a CASTLINK_ environment variable.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/1ureka/castlink/internal/config"
	"github.com/1ureka/castlink/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(config.NewViper())

	if err := root.ExecuteContext(ctx); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
}
