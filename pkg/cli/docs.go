package cli

import (
	"context"
	"fmt"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/usecase/session"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func docsCommand() *cli.Command {
	return &cli.Command{
		Name:  "docs",
		Usage: "Manage documents within a store",
		Commands: []*cli.Command{
			docsListCommand(),
			docsAddCommand(),
			docsRemoveCommand(),
		},
	}
}

// openDocsView builds a controller with the management view opened on the
// given store.
func openDocsView(ctx context.Context, cfg *config, storeID model.StoreID) (*session.Controller, error) {
	ctl, err := cfg.newController(ctx, cfg.newGate())
	if err != nil {
		return nil, err
	}
	if err := ctl.Init(ctx); err != nil {
		return nil, err
	}
	if _, err := ctl.OpenDocuments(ctx, storeID); err != nil {
		return nil, err
	}
	return ctl, nil
}

func docsListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "list",
		Usage:     "List documents in a store",
		ArgsUsage: "<store-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			storeID := model.StoreID(c.Args().First())
			if storeID == "" {
				return goerr.New("store id is required")
			}

			ctl, err := openDocsView(ctx, &cfg, storeID)
			if err != nil {
				return err
			}

			for _, d := range ctl.Documents() {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\n", d.ID, d.DisplayName)
				for _, m := range d.Metadata {
					fmt.Fprintf(c.Root().Writer, "  %s: %s\n", m.Key, m.Value)
				}
			}

			return nil
		},
	}
}

func docsAddCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "add",
		Usage:     "Upload a document into a store",
		ArgsUsage: "<store-id> <file>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			storeID := model.StoreID(c.Args().Get(0))
			path := c.Args().Get(1)
			if storeID == "" || path == "" {
				return goerr.New("store id and file are required")
			}

			file, err := loadStagedFile(path)
			if err != nil {
				return err
			}

			ctl, err := openDocsView(ctx, &cfg, storeID)
			if err != nil {
				return err
			}

			if err := ctl.AddDocument(ctx, file); err != nil {
				return goerr.Wrap(err, "failed to add document")
			}

			fmt.Fprintf(c.Root().Writer, "Added %s (%d documents)\n", file.Name, len(ctl.Documents()))
			return nil
		},
	}
}

func docsRemoveCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a document from a store",
		ArgsUsage: "<store-id> <document-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			storeID := model.StoreID(c.Args().Get(0))
			docID := model.DocumentID(c.Args().Get(1))
			if storeID == "" || docID == "" {
				return goerr.New("store id and document id are required")
			}

			ctl, err := openDocsView(ctx, &cfg, storeID)
			if err != nil {
				return err
			}

			if err := ctl.RemoveDocument(ctx, docID); err != nil {
				return goerr.Wrap(err, "failed to delete document")
			}

			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", docID)
			return nil
		},
	}
}
