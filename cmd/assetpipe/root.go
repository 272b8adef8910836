package main

import (
	"github.com/spf13/cobra"

	"github.com/yacobolo/assetpipe"
)

var rootCmd = &cobra.Command{
	Use:   "assetpipe",
	Short: "Sass and JavaScript asset pipeline with live reload",
	Long: `Compiles indented-syntax Sass into compressed, vendor-prefixed CSS and
minifies JavaScript, writing source maps next to every output.
In watch mode, changed sources are rebuilt and connected browsers reload.`,
	// Default behavior: run build when no subcommand is given.
	// We must call loadConfig here because PreRunE of buildCmd
	// is not triggered when delegating via rootCmd.RunE.
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return runTasks(cmd, assetpipe.TaskStyles, assetpipe.TaskScripts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags (inherited by all subcommands)
	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable verbose logging")
	pf.Bool("quiet", false, "Suppress all output (exit code only)")
	pf.Bool("color", false, "Force color output")
	pf.String("config", defaultConfigPath, "Config file path")
	pf.String("root", "", "Project root directory (default: .)")
	pf.String("output-format", "", "Output format: issues|summary|json (default: issues)")
	pf.Bool("print-lines", true, "Show source lines with issues")

	// Task settings, shared by the build commands and watch
	pf.String("styles-source", "", "Sass source directory (default: sass)")
	pf.String("styles-output", "", "CSS output directory (default: css)")
	pf.String("browsers", "", "Browsers to add vendor prefixes for")
	pf.StringSlice("load-path", nil, "Additional Sass import directories")
	pf.String("scripts-source", "", "JavaScript source directory (default: js)")
	pf.String("scripts-output", "", "Minified JavaScript output directory (default: js/min)")
	pf.Bool("sourcemaps", true, "Write source maps next to outputs")
	pf.StringSlice("ignore", nil, "Gitignore-style patterns to skip")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(stylesCmd)
	rootCmd.AddCommand(scriptsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}
