package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func deleteCommand() *cli.Command {
	var (
		cfg config
		yes bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "Skip the confirmation prompt",
			Destination: &yes,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a document store",
		ArgsUsage: "<store-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			storeID := model.StoreID(c.Args().First())
			if storeID == "" {
				return goerr.New("store id is required")
			}

			ctl, err := cfg.newController(ctx, cfg.newGate())
			if err != nil {
				return err
			}
			if err := ctl.Init(ctx); err != nil {
				return err
			}

			confirm, err := ctl.RequestDeleteStore(storeID)
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(c.Root().Writer, "Delete store %q (%s)? [y/N] ", confirm.DisplayName, confirm.ID)
				scanner := bufio.NewScanner(os.Stdin)
				if !scanner.Scan() || strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
					fmt.Fprintf(c.Root().Writer, "Aborted\n")
					return nil
				}
			}

			if err := ctl.ConfirmDeleteStore(ctx, storeID); err != nil {
				return goerr.Wrap(err, "failed to delete store")
			}

			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", storeID)
			return nil
		},
	}
}
