package main

import (
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacobolo/assetpipe"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild on change and live-reload connected browsers",
	Long: `Watch the style and script sources and recompile the affected task on
every change. Browsers running the livereload client are told to reload
the written assets. Failed builds are reported and watching continues.
Stop with Ctrl+C.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("addr", "", "Live reload listen address (default: :35729)")
	watchCmd.Flags().Duration("debounce", 0, "Quiet period before rebuilding (default: 100ms)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	log := loggerFromConfig()
	defer func() { _ = log.Sync() }()

	cfg := buildConfig(log)
	quiet := getBoolWithFallback("quiet", "quiet", false)
	reporter := assetpipe.NewReporter(cmd.OutOrStdout(), reportOptions())

	// Tasks finish concurrently
	var mu sync.Mutex
	report := func(res *assetpipe.TaskResult, err error) {
		if quiet || res == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		reporter.PrintResult(res, assetpipe.Issues(res.Task, cfg.Root, res.Errors))
	}

	log.Info("starting watch", zap.String("root", cfg.Root), zap.String("livereload", cfg.LiveReloadAddr))
	return assetpipe.Watch(cmd.Context(), cfg, report)
}
