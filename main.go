package main

import (
	"context"
	"os"

	"github.com/libris-dev/libris/pkg/cli"
)

func main() {
	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		os.Exit(err.Code)
	}
}
