package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/config"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/pending"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tui"
)

// runUI starts the terminal UI. Logs go to a file beside the config since
// the UI owns the terminal.
func runUI(cmd *cobra.Command, o *options) error {
	logFile, err := openUILog()
	if err != nil {
		return err
	}
	defer logFile.Close()
	cmd.SetErr(logFile)

	e, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	interval := e.store.FlushInterval(e.cfg.Buffer.FlushInterval)
	buf := pending.New(e.svc, e.log.Named("pending"))

	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf.Run(ctx, interval)
	}()

	app := tui.NewApp(tui.Deps{
		Service:   e.svc,
		Store:     e.store,
		Buffer:    buf,
		ExportDir: e.cfg.Export.Dir,
		Log:       e.log.Named("tui"),
	})
	_, runErr := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	// Run flushes whatever is still buffered once cancelled.
	cancel()
	<-done
	if n := buf.Len(); n > 0 {
		e.log.Error("edits not saved on exit", "count", n)
		if runErr == nil {
			runErr = fmt.Errorf("%d edit(s) could not be saved", n)
		}
	}
	return runErr
}

func openUILog() (*os.File, error) {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "mytimemanager.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
