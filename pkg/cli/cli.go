package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "libris",
		Usage: "Chat with documents in managed search stores",
		Commands: []*cli.Command{
			sessionCommand(),
			listCommand(),
			createCommand(),
			deleteCommand(),
			docsCommand(),
			chatCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
