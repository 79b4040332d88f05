package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

// printMarkdown renders markdown to the terminal, falling back to the raw
// text when the renderer cannot be set up (e.g. no TTY capabilities).
func printMarkdown(markdown string) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		fmt.Print(markdown)
		return
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not render markdown: %v\n", err)
		fmt.Print(markdown)
		return
	}
	fmt.Print(out)
}
