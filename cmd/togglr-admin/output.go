package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var (
	enabledColor  = color.New(color.FgGreen)
	disabledColor = color.New(color.FgRed)
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func status(enabled bool) string {
	if enabled {
		return enabledColor.Sprint("enabled")
	}
	return disabledColor.Sprint("disabled")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

var errNotConfirmed = errors.New("aborted")

// confirm asks a yes/no question. With yes set, or without a terminal to
// ask on, it does not prompt: yes confirms and no terminal refuses.
func confirm(title string, yes bool) error {
	if yes {
		return nil
	}
	if !interactive() {
		return fmt.Errorf("%s: refusing without confirmation, pass --yes", title)
	}
	var ok bool
	if err := huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok).Run(); err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		return errNotConfirmed
	}
	return nil
}

// promptInput asks for a line of text
func promptInput(title string, value *string) error {
	if !interactive() {
		return fmt.Errorf("%s is required", strings.ToLower(title))
	}
	if err := huh.NewInput().Title(title).Value(value).Run(); err != nil {
		return fmt.Errorf("failed to read %s: %w", strings.ToLower(title), err)
	}
	return nil
}

// readPassword reads a secret from the terminal without echo
func readPassword(w io.Writer, prompt string) (string, error) {
	if !interactive() {
		return "", fmt.Errorf("%s is required", strings.ToLower(strings.TrimSuffix(prompt, ": ")))
	}
	fmt.Fprint(w, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(data), nil
}
