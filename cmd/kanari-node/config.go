package main

import (
	"github.com/spf13/viper"
	cli "gopkg.in/urfave/cli.v1"
)

// nodeConfig is the resolved set of settings the node starts with:
// explicit CLI flags win, an optional --config file fills in anything
// left at its flag default, matching the layering the timestampvm
// plugin's viper/pflag wiring uses for its own flag set.
type nodeConfig struct {
	DataDir   string
	APIAddr   string
	APICors   string
	Metrics   bool
	Treasury  string
	Verbosity int
}

func loadConfig(ctx *cli.Context) (nodeConfig, error) {
	cfg := nodeConfig{
		DataDir:   ctx.String(dataDirFlag.Name),
		APIAddr:   ctx.String(apiAddrFlag.Name),
		APICors:   ctx.String(apiCorsFlag.Name),
		Metrics:   ctx.Bool(metricsFlag.Name),
		Treasury:  ctx.String(treasuryFlag.Name),
		Verbosity: ctx.Int(verbosityFlag.Name),
	}

	path := ctx.String(configFlag.Name)
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}

	if !ctx.IsSet(dataDirFlag.Name) && v.IsSet("data-dir") {
		cfg.DataDir = v.GetString("data-dir")
	}
	if !ctx.IsSet(apiAddrFlag.Name) && v.IsSet("api-addr") {
		cfg.APIAddr = v.GetString("api-addr")
	}
	if !ctx.IsSet(apiCorsFlag.Name) && v.IsSet("api-cors") {
		cfg.APICors = v.GetString("api-cors")
	}
	if !ctx.IsSet(metricsFlag.Name) && v.IsSet("metrics") {
		cfg.Metrics = v.GetBool("metrics")
	}
	if !ctx.IsSet(treasuryFlag.Name) && v.IsSet("treasury") {
		cfg.Treasury = v.GetString("treasury")
	}
	if !ctx.IsSet(verbosityFlag.Name) && v.IsSet("verbosity") {
		cfg.Verbosity = v.GetInt("verbosity")
	}
	return cfg, nil
}
