package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/snek/workspace"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Resolve documents again whenever they or their imports change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			w := workspace.New(dir)
			watcher := workspace.NewFileWatcher(w)
			watcher.SetPollInterval(interval)
			watcher.OnUpdate = func(path string, f *workspace.FileInfo) {
				report(path, f)
			}

			watcher.Start()
			defer watcher.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "poll interval")

	return cmd
}

func report(path string, f *workspace.FileInfo) {
	if f == nil {
		fmt.Printf("%s: removed\n", path)
		return
	}
	if f.Document == nil {
		fmt.Printf("%s: failed: %v\n", path, f.Err)
		return
	}
	status := "ok"
	if f.Err != nil || len(f.Diagnostics) > 0 {
		status = fmt.Sprintf("%d problems", len(f.Diagnostics)+len(unjoin(f.Err)))
	}
	fmt.Printf("%s: %s (%d files)\n", path, status, len(f.Imports))
	for _, d := range f.Diagnostics {
		fmt.Printf("  %s\n", d)
	}
	if f.Err != nil {
		for _, e := range unjoin(f.Err) {
			fmt.Printf("  %s\n", e)
		}
	}
}
