// Command kanari-node runs the execution core's JSON-RPC front door: it
// opens the persistent state store (replaying any pending journal
// entry left by a crash), wires an Engine around it with no Move VM
// loaded (the built-in Transfer/Mint fallback handles those two kinds
// natively), and serves kanari_* methods until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/jamesatomc/kanari-sdk-V2/engine"
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
	"github.com/jamesatomc/kanari-sdk-V2/kvstate"
	"github.com/jamesatomc/kanari-sdk-V2/log"
	"github.com/jamesatomc/kanari-sdk-V2/metrics"
	"github.com/jamesatomc/kanari-sdk-V2/rpc"
	"github.com/jamesatomc/kanari-sdk-V2/vmboundary"
)

var logger = log.WithContext("pkg", "node")

func main() {
	app := cli.NewApp()
	app.Name = "kanari-node"
	app.Usage = "execution core JSON-RPC node"
	app.Flags = []cli.Flag{
		configFlag,
		dataDirFlag,
		apiAddrFlag,
		apiCorsFlag,
		metricsFlag,
		treasuryFlag,
		verbosityFlag,
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// verbosityToLevel maps the 0-5 --verbosity scale (silent through
// trace) onto slog levels, the same coarse-to-fine ordering thor's
// own 0-9 --verbosity flag uses for log15 levels.
func verbosityToLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError + 8 // above CRIT: effectively silent
	case v == 1:
		return slog.LevelError
	case v == 2:
		return slog.LevelWarn
	case v == 3:
		return slog.LevelInfo
	case v == 4:
		return slog.LevelDebug
	default:
		return slog.LevelDebug - 4
	}
}

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return errors.Wrap(err, "kanari-node: load config")
	}

	log.SetVerbosity(verbosityToLevel(cfg.Verbosity))

	if cfg.Treasury == "" {
		return errors.New("kanari-node: --treasury is required")
	}
	treasury, err := kanari.ParseAddress(cfg.Treasury)
	if err != nil {
		return errors.Wrap(err, "kanari-node: --treasury")
	}

	if cfg.Metrics {
		metrics.InitializePrometheusMetrics()
	}

	logger.Info("opening state store", "dataDir", cfg.DataDir)
	store, err := kvstate.Open(cfg.DataDir)
	if err != nil {
		return errors.Wrap(err, "kanari-node: open state store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing state store", "err", err)
		}
	}()
	logger.Info("state store ready; any pending journal entry was replayed")

	// No Move VM is loaded: Transfer, Mint and PublishModule run
	// natively in VmBoundary; ExecuteFunction fails with
	// VmExecutionFailure until a real VM is wired in (§4.4 step 5).
	eng := engine.New(store, vmboundary.New(nil), treasury)

	server := rpc.NewServer(cfg.APIAddr, eng, rpc.Options{
		AllowedOrigins: cfg.APICors,
		EnableMetrics:  cfg.Metrics,
	})

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	go func() {
		<-interrupt
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Info("serving JSON-RPC", "addr", cfg.APIAddr, "treasury", treasury.String())
	if err := server.Serve(runCtx); err != nil {
		return errors.Wrap(err, "kanari-node: serve")
	}
	logger.Info("exited")
	return nil
}
