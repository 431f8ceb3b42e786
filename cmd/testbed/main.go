package main

import (
	"context"
	"os"

	"github.com/rickgorman/testbed/internal/cli"
	"github.com/rickgorman/testbed/internal/ui"
	"github.com/rickgorman/testbed/pkg/logger"
)

var version = "0.1.0-dev"

func main() {
	logger.ConfigureFromEnv()

	if err := cli.Execute(context.Background(), version); err != nil {
		ui.Fail("%v", err)
		os.Exit(1)
	}
}
