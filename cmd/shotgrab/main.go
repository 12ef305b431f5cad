package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shotgrab/shotgrab/internal/config"
	"github.com/shotgrab/shotgrab/internal/pipeline"
	"github.com/shotgrab/shotgrab/internal/util"
	"github.com/shotgrab/shotgrab/internal/version"
)

func main() {
	modeFlag := flag.String("mode", "comprehensive", "scrape mode: comprehensive (search API) or fast (CDN cache)")
	limitFlag := flag.Int("limit", 0, "override the number of clips to collect")
	outFlag := flag.String("out", "", "override the output directory")
	debugFlag := flag.Bool("debug", false, "enable debug mode")
	versionFlag := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *versionFlag {
		version.ShowVersion()
		return
	}

	util.SetDebugMode(*debugFlag)
	util.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNoSession) {
			util.Error("no session token configured")
			util.Info("log into shotdeck.com, copy the PHPSESSID cookie value, and export SHOTGRAB_SESSION_ID")
			os.Exit(1)
		}
		util.Fatal(util.ErrorHandler(err))
	}

	if *limitFlag > 0 {
		cfg.TargetCount = *limitFlag
	}
	if *outFlag != "" {
		cfg.OutputDir = *outFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg)
	defer func() {
		if err := p.Close(); err != nil {
			util.Debugf("manifest close: %v", err)
		}
	}()

	// The live progress bar and debug logging fight over the terminal.
	p.ShowProgress(!*debugFlag)

	switch *modeFlag {
	case "comprehensive":
		util.Infof("starting comprehensive scrape (target %d clips)", cfg.TargetCount)
		err = p.RunComprehensive(ctx)
	case "fast":
		util.Infof("starting fast cache scrape (target %d clips)", cfg.TargetCount)
		err = p.RunFast(ctx)
	default:
		util.Fatalf("unknown mode %q, want comprehensive or fast", *modeFlag)
	}

	if err != nil {
		util.Fatal(util.ErrorHandler(err))
	}
}
