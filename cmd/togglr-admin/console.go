package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/console"
	"github.com/togglr/togglr-admin/internal/notify"
	"github.com/togglr/togglr-admin/internal/routes"
	"github.com/togglr/togglr-admin/internal/session"
)

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"ui"},
	Short:   "Open the interactive console",
	Long: `Open the interactive console. Logs go to the rotating log file while the
console owns the terminal.`,
	RunE: runConsole,
}

var consoleStart string

func init() {
	consoleCmd.Flags().StringVar(&consoleStart, "start", routes.Landing, "page to open, e.g. /features?environment=prod")
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	if !interactive() {
		return fmt.Errorf("the console needs a terminal")
	}
	if routes.Resolve(consoleStart).Page == routes.PageNotFound {
		return fmt.Errorf("unknown page %q", consoleStart)
	}

	notifications := notify.NewChannel(64)
	a, err := newApp(cmd, appOptions{logFile: true, notifier: notifications})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := session.NewWatcher(a.session, session.DefaultWatchDebounce, a.logger)
	if err != nil {
		a.logger.Warn("session changes from other processes will not be noticed", "error", err)
	} else {
		go watcher.Run(ctx)
		defer watcher.Stop()
	}

	a.logger.Info("console started", "api", a.cfg.API.BaseURL, "start", consoleStart)
	return console.Run(ctx, console.Options{
		Backend:          a.client,
		Session:          a.session,
		Notifications:    notifications,
		NotificationTTL:  a.cfg.Console.NotificationTTL,
		AuditPageSize:    a.cfg.Audit.PageSize,
		UsernameDebounce: a.cfg.Audit.UsernameDebounce,
		Start:            consoleStart,
		Logger:           a.logger,
	})
}
