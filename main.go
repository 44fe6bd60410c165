package main

import (
	"context"
	"flag"
	"heartbeat/agent"
	"heartbeat/config"
	"heartbeat/logger"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/heroku/x/hmetrics/onload"
	"github.com/joho/godotenv"
)

func main() {
	flag.Bool("help", false, "Help flag")
	var testFlag = flag.Bool("test", false, "Flag to run every configured task once and exit")
	var devFlag = flag.Bool("dev", false, "Flag to toggle dev mode")
	flag.Parse()

	if *devFlag {
		// load .env file
		err := godotenv.Load()
		if err != nil {
			logger.Error("Error loading .env file")
			os.Exit(1)
		}
	}

	config, err := config.New()
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	if *testFlag {
		config.SetTestMode()
	}

	agent, err := agent.New(config)
	if err != nil {
		logger.Error("Unable to create agent", "err", err)
		os.Exit(1)
	}

	if *testFlag {
		err = agent.Test()
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err = agent.Run(ctx)
	}

	if err != nil {
		logger.Error("Agent exited with error", "err", err)
		os.Exit(1)
	}
}
