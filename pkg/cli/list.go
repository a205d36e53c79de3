package cli

import (
	"context"
	"fmt"

	"github.com/libris-dev/libris/pkg/usecase/library"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List document stores",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			key, err := cfg.requireKey(cfg.newGate())
			if err != nil {
				return err
			}
			fs, err := cfg.newFileSearch(key)
			if err != nil {
				return err
			}

			lib := library.New(fs)
			stores, err := lib.Refresh(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list stores")
			}

			for _, s := range stores {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\n", s.ID, s.DisplayName)
			}

			return nil
		},
	}
}
