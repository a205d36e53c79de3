package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/usecase/session"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func sessionCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "session",
		Usage: "Interactive session: manage stores and chat with them",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)
			w := c.Root().Writer

			gate := cfg.newGate()
			if !gate.Check() {
				fmt.Fprintf(w, "No API credential found.\n")
				if err := gate.Request(ctx); err != nil {
					return goerr.Wrap(err, "credential selection failed")
				}
				if !gate.Selected() {
					return goerr.Wrap(model.ErrNoCredential, "cannot start a session")
				}
			}

			ctl, err := cfg.newController(ctx, gate, session.WithNotify(printProgress(w)))
			if err != nil {
				return err
			}
			if err := ctl.Init(ctx); err != nil {
				return err
			}

			rl, err := readline.New("libris> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open prompt")
			}
			defer rl.Close()

			for {
				switch ctl.Status() {
				case model.StatusWelcome:
					done, err := welcomeCycle(ctx, rl, w, ctl)
					if err != nil {
						return err
					}
					if done {
						return nil
					}

				case model.StatusChatting:
					if err := runChatLoop(ctx, w, ctl); err != nil {
						return err
					}

				case model.StatusError:
					errStyle.Fprintf(w, "Something went wrong: %s\n", ctl.FatalError())
					fmt.Fprintf(w, "Press enter to try again.\n")
					if _, err := rl.Readline(); err != nil {
						return nil
					}
					if err := ctl.Recover(); err != nil {
						return err
					}

				default:
					return goerr.New("unexpected session status", goerr.V("status", ctl.Status().String()))
				}
			}
		},
	}
}

// welcomeCycle renders the welcome screen once and handles one command.
// Returns done=true when the user quits.
func welcomeCycle(ctx context.Context, rl *readline.Instance, w io.Writer, ctl *session.Controller) (bool, error) {
	// A prompt cycle is the CLI analog of a focus event: re-derive
	// credential presence every time.
	ctl.Gate().Check()

	renderWelcome(w, ctl)

	line, err := rl.Readline()
	if err != nil {
		return true, nil
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil

	case "help":
		printHelp(w)

	case "refresh":
		if _, err := ctl.Library().Refresh(ctx); err != nil {
			errStyle.Fprintf(w, "Refresh failed: %v\n", err)
		}

	case "add":
		if len(args) == 0 {
			hintStyle.Fprintf(w, "usage: add <path>\n")
			break
		}
		file, err := loadStagedFile(args[0])
		if err != nil {
			errStyle.Fprintf(w, "%v\n", err)
			break
		}
		if err := ctl.Stage(file); err != nil {
			errStyle.Fprintf(w, "%v\n", err)
		}

	case "drop":
		if len(args) == 0 {
			hintStyle.Fprintf(w, "usage: drop <name>\n")
			break
		}
		ctl.Unstage(args[0])

	case "new":
		if err := ctl.CreateStore(ctx); err != nil {
			// Field-level problems are already rendered inline; fatal
			// ones flip the status and are handled by the outer loop.
			if ctl.Status() == model.StatusWelcome && ctl.FieldError() == "" {
				errStyle.Fprintf(w, "%v\n", err)
			}
		}

	case "open":
		store, ok := pickStore(w, ctl, args)
		if !ok {
			break
		}
		if err := ctl.SelectStore(ctx, store.ID); err != nil {
			errStyle.Fprintf(w, "%v\n", err)
		}

	case "docs":
		store, ok := pickStore(w, ctl, args)
		if !ok {
			break
		}
		manageDocuments(ctx, rl, w, ctl, store.ID)

	case "delete":
		store, ok := pickStore(w, ctl, args)
		if !ok {
			break
		}
		confirm, err := ctl.RequestDeleteStore(store.ID)
		if err != nil {
			errStyle.Fprintf(w, "%v\n", err)
			break
		}
		fmt.Fprintf(w, "Delete store %q? [y/N] ", confirm.DisplayName)
		answer, err := rl.Readline()
		if err != nil || strings.ToLower(strings.TrimSpace(answer)) != "y" {
			break
		}
		if err := ctl.ConfirmDeleteStore(ctx, store.ID); err != nil {
			errStyle.Fprintf(w, "Deletion failed: %v\n", err)
		}

	default:
		hintStyle.Fprintf(w, "Unknown command %q, try 'help'.\n", cmd)
	}

	return false, nil
}

func renderWelcome(w io.Writer, ctl *session.Controller) {
	fmt.Fprintf(w, "\nYour document stores:\n")

	stores := ctl.Library().Stores()
	if len(stores) == 0 {
		fmt.Fprintf(w, "  (none yet)\n")
	}
	for i, s := range stores {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s.DisplayName)
	}

	if err := ctl.Library().Err(); err != nil {
		errStyle.Fprintf(w, "  Could not load the store list, showing cached entries. Type 'refresh' to retry.\n")
	}

	if staged := ctl.Staged(); len(staged) > 0 {
		fmt.Fprintf(w, "Staged files:\n")
		for _, f := range staged {
			fmt.Fprintf(w, "  - %s (%d bytes)\n", f.Name, f.Size())
		}
	}

	if msg := ctl.FieldError(); msg != "" {
		errStyle.Fprintf(w, "%s\n", msg)
	}
	if !ctl.Gate().Selected() {
		hintStyle.Fprintf(w, "No API credential selected.\n")
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  add <path>     stage a local file for a new store
  drop <name>    remove a staged file
  new            create a store from the staged files
  open <n>       chat with store n
  docs <n>       manage documents of store n
  delete <n>     delete store n
  refresh        reload the store list
  quit           leave
`)
}

// pickStore resolves a 1-based index argument against the cached store list.
func pickStore(w io.Writer, ctl *session.Controller, args []string) (*model.Store, bool) {
	if len(args) == 0 {
		hintStyle.Fprintf(w, "which store? pass its number\n")
		return nil, false
	}

	n, err := strconv.Atoi(args[0])
	stores := ctl.Library().Stores()
	if err != nil || n < 1 || n > len(stores) {
		hintStyle.Fprintf(w, "no such store: %s\n", args[0])
		return nil, false
	}

	return stores[n-1], true
}

// manageDocuments runs the per-store document management sub-flow.
func manageDocuments(ctx context.Context, rl *readline.Instance, w io.Writer, ctl *session.Controller, storeID model.StoreID) {
	if _, err := ctl.OpenDocuments(ctx, storeID); err != nil {
		// Fetch failure closes the view.
		errStyle.Fprintf(w, "Could not open documents: %v\n", err)
		return
	}
	defer ctl.CloseDocuments()

	for {
		docs := ctl.Documents()
		fmt.Fprintf(w, "\nDocuments:\n")
		if len(docs) == 0 {
			fmt.Fprintf(w, "  (empty)\n")
		}
		for i, d := range docs {
			fmt.Fprintf(w, "  %d. %s\n", i+1, d.DisplayName)
		}
		fmt.Fprintf(w, "docs commands: add <path>, rm <n>, back\n")

		line, err := rl.Readline()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "back":
			return

		case "add":
			if len(fields) < 2 {
				hintStyle.Fprintf(w, "usage: add <path>\n")
				continue
			}
			file, err := loadStagedFile(fields[1])
			if err != nil {
				errStyle.Fprintf(w, "%v\n", err)
				continue
			}
			if err := ctl.AddDocument(ctx, file); err != nil {
				// The view stays open; the indicator is already cleared.
				errStyle.Fprintf(w, "Upload failed: %v\n", err)
			}

		case "rm":
			if len(fields) < 2 {
				hintStyle.Fprintf(w, "usage: rm <n>\n")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 || n > len(docs) {
				hintStyle.Fprintf(w, "no such document: %s\n", fields[1])
				continue
			}
			// Failures roll the entry back and are only logged.
			_ = ctl.RemoveDocument(ctx, docs[n-1].ID)

		default:
			hintStyle.Fprintf(w, "Unknown command %q\n", fields[0])
		}
	}
}
