package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/usecase/session"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func printProgress(w io.Writer) func(model.UploadProgress) {
	return func(p model.UploadProgress) {
		if p.FileName != "" {
			fmt.Fprintf(w, "[%d/%d] %s %s\n", p.Current, p.Total, p.Message, p.FileName)
			return
		}
		fmt.Fprintf(w, "[%d/%d] %s\n", p.Current, p.Total, p.Message)
	}
}

func createCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "create",
		Usage:     "Create a document store from local files",
		ArgsUsage: "<file> [file...]",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one file is required")
			}

			ctl, err := cfg.newController(ctx, cfg.newGate(),
				session.WithNotify(printProgress(c.Root().Writer)),
				session.WithCompletionPause(0))
			if err != nil {
				return err
			}
			if err := ctl.Init(ctx); err != nil {
				return err
			}

			for _, path := range paths {
				file, err := loadStagedFile(path)
				if err != nil {
					return err
				}
				if err := ctl.Stage(file); err != nil {
					return err
				}
			}

			if err := ctl.CreateStore(ctx); err != nil {
				return goerr.Wrap(err, "failed to create store")
			}

			stores := ctl.Library().Stores()
			if len(stores) > 0 {
				fmt.Fprintf(c.Root().Writer, "Created %s\t%s\n", stores[0].ID, stores[0].DisplayName)
			}

			return nil
		},
	}
}
