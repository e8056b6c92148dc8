package main

import (
	"os"

	"github.com/kjk/gziptool/log"
)

func main() {
	cfg := DefaultConfig()
	if err := cfg.LoadEnv(os.Getenv); err != nil {
		reportError(cfg, os.Stderr, err)
		os.Exit(1)
	}
	log.Init(&log.Config{
		Dir:     cfg.LogDir,
		Verbose: cfg.Verbose,
	})

	err := run(cfg, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		reportError(cfg, os.Stderr, err)
	}
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}
