package main

import (
	"os"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kari", "kanari-db")
	}
	return filepath.Join(home, ".kari", "kanari-db")
}

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML/JSON config file; explicit flags always win over its values",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory holding the state/ key-value store and journal/ write-ahead log",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "127.0.0.1:3000",
		Usage: "JSON-RPC listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of origins allowed to make cross-origin JSON-RPC requests",
	}
	metricsFlag = cli.BoolFlag{
		Name:  "metrics",
		Usage: "expose Prometheus metrics on /metrics",
	}
	treasuryFlag = cli.StringFlag{
		Name:  "treasury",
		Usage: "hex address authorized to submit Mint transactions (required)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity, 0 (silent) through 5 (trace)",
	}
)
