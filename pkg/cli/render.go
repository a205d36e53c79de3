package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/libris-dev/libris/pkg/model"
)

var (
	userLabel  = color.New(color.FgGreen, color.Bold)
	modelLabel = color.New(color.FgCyan, color.Bold)
	citeStyle  = color.New(color.Faint)
	errStyle   = color.New(color.FgRed, color.Bold)
	hintStyle  = color.New(color.FgYellow)
)

func renderMessage(w io.Writer, msg *model.ChatMessage) {
	label := modelLabel
	name := "assistant"
	if msg.Role == model.RoleUser {
		label = userLabel
		name = "you"
	}

	label.Fprintf(w, "%s: ", name)
	fmt.Fprintf(w, "%s\n", msg.Text())

	for i, ch := range msg.Chunks {
		title := ch.Title
		if title == "" {
			title = ch.URI
		}
		citeStyle.Fprintf(w, "  [%d] %s\n", i+1, title)
	}
}

func renderQuestions(w io.Writer, questions []string) {
	if len(questions) == 0 {
		return
	}
	hintStyle.Fprintf(w, "Try asking:\n")
	for _, q := range questions {
		hintStyle.Fprintf(w, "  - %s\n", q)
	}
}
