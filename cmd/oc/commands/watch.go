package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/da0x/oc/config"
	"github.com/da0x/oc/errors"
	"github.com/da0x/oc/logger"
)

// WatchCmd represents the watch command
var WatchCmd = &cobra.Command{
	Use:   "watch <model.mdl>",
	Short: "Re-export OC output whenever the model changes",
	Long: `Watch an MDL file and re-run the to-oc export every time it is
saved. Rapid saves are debounced (see watch.debounce_ms in the config
file). Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	inputFile := args[0]
	if _, err := os.Stat(inputFile); err != nil {
		return errors.Wrapf(err, "cannot watch %s", inputFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond

	// Export once up front so the output exists before the first save.
	if err := exportModel(inputFile, true, true); err != nil {
		logger.Errorw("Initial export failed", "file", inputFile, "error", err)
	}

	watcher, err := config.NewFileWatcher(inputFile, debounce)
	if err != nil {
		return errors.Wrapf(err, "watching %s", inputFile)
	}
	defer watcher.Stop()

	watcher.OnChange(func(path string) error {
		fmt.Printf("\nChange detected: %s\n", path)
		return exportModel(path, true, true)
	})
	watcher.Start()

	fmt.Printf("Watching %s (debounce %s) - Ctrl-C to stop\n", inputFile, debounce)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println("\nStopping watcher")
	return nil
}
