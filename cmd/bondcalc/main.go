package main

import (
	"fmt"
	"os"

	"bonofacil-backend/internal/cli"
	"bonofacil-backend/internal/config"
	"bonofacil-backend/internal/finance"
	"bonofacil-backend/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel
	lc.Pretty = true
	lc.Output = os.Stderr
	logger := logging.New(lc)

	engine, err := finance.NewEngine(cfg.Precision, finance.WithLogger(logger))
	if err != nil {
		return err
	}
	return cli.NewRootCmd(&cli.App{Engine: engine, Logger: logger}).Execute()
}
