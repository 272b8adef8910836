package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/yacobolo/assetpipe"
)

// errBuildFailed signals a non-zero exit after issues have been reported.
var errBuildFailed = errors.New("build failed")

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"default"},
	Short:   "Compile styles and scripts",
	Long: `Run the styles and scripts tasks concurrently.
Every source is processed even when some fail; the exit code is 1 if any did.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTasks(cmd, assetpipe.TaskStyles, assetpipe.TaskScripts)
	},
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Compile Sass sources into prefixed, compressed CSS",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTasks(cmd, assetpipe.TaskStyles)
	},
}

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "Minify JavaScript sources into .min.js files",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTasks(cmd, assetpipe.TaskScripts)
	},
}

func runTasks(cmd *cobra.Command, tasks ...assetpipe.Task) error {
	log := loggerFromConfig()
	defer func() { _ = log.Sync() }()

	cfg := buildConfig(log)
	ctx := cmd.Context()

	var (
		results []*assetpipe.TaskResult
		err     error
	)
	if len(tasks) == len(assetpipe.Tasks) {
		results, err = assetpipe.Build(ctx, cfg)
	} else {
		for _, task := range tasks {
			res, taskErr := assetpipe.Tasks[task](ctx, cfg)
			results = append(results, res)
			err = multierr.Append(err, taskErr)
		}
	}

	quiet := getBoolWithFallback("quiet", "quiet", false)
	format := assetpipe.DetermineOutputFormat(getStringWithFallback("output-format", "output-format", ""), quiet)
	if !quiet {
		if werr := assetpipe.WriteOutput(cmd.OutOrStdout(), cfg.Root, results, format, reportOptions()); werr != nil {
			return werr
		}
	}

	if err != nil {
		return errBuildFailed
	}
	return nil
}
