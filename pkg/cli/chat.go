package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/usecase/session"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "chat",
		Usage:     "Chat with a document store",
		ArgsUsage: "<store-id>",
		Flags:     globalFlags(&cfg),
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
			if err := ctl.SelectStore(ctx, storeID); err != nil {
				return err
			}

			if err := runChatLoop(ctx, c.Root().Writer, ctl); err != nil {
				return err
			}
			if ctl.Status() == model.StatusError {
				return goerr.New(ctl.FatalError())
			}

			return nil
		},
	}
}

// runChatLoop reads messages until the user leaves or the session turns
// fatal. Navigating away abandons, but does not abort, any in-flight query.
func runChatLoop(ctx context.Context, w io.Writer, ctl *session.Controller) error {
	store := ctl.ActiveStore()
	fmt.Fprintf(w, "Chatting with %q. Type 'exit' to leave.\n", store.DisplayName)
	renderQuestions(w, ctl.Questions())

	rl, err := readline.New("> ")
	if err != nil {
		return goerr.Wrap(err, "failed to open prompt")
	}
	defer rl.Close()

	for ctl.Status() == model.StatusChatting {
		line, err := rl.Readline()
		if err != nil {
			break
		}
		if line == "" {
			continue
		}
		if line == "exit" || line == "back" {
			break
		}

		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
		sp.Suffix = " searching documents..."
		sp.Start()
		sendErr := ctl.Send(ctx, line)
		sp.Stop()

		messages := ctl.Messages()
		if len(messages) > 0 {
			renderMessage(w, messages[len(messages)-1])
		}
		if sendErr != nil {
			errStyle.Fprintf(w, "The last question failed: %v\n", sendErr)
			break
		}
	}

	if ctl.Status() == model.StatusChatting {
		return ctl.EndChat(ctx)
	}
	return nil
}
