package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xlttj/sshtun/pkg/logging"
	"github.com/xlttj/sshtun/pkg/ui"

	tea "github.com/charmbracelet/bubbletea"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("sshtun %s\n", version)
		return
	}

	logging.LogInfo("Starting sshtun")

	// One cancellation token for the whole run loop; SIGINT/SIGTERM end the
	// program the same way a quit keypress does.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		logging.LogError("Program exited with error: %v", err)
		os.Exit(1)
	}

	logging.LogInfo("sshtun terminated")
}

func run(ctx context.Context) error {
	model := ui.NewModel()
	// Every live tunnel must be terminated on exit, error paths included
	defer model.Cleanup()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
