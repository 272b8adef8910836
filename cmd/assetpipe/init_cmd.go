package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .assetpipe.yaml config file",
	Long:  `Create an .assetpipe.yaml configuration file in the current directory with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = defaultConfigPath
		}

		if _, err := os.Stat(configPath); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}

		if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configPath)
		return nil
	},
}

const defaultConfig = `# assetpipe configuration

# Shared settings
root: .
verbose: false
sourcemaps: true
output-format: issues   # issues | summary | json
ignore:
  - "node_modules/"

# Sass compilation
styles:
  source: sass
  output: css
  include:
    - "**/*.sass"
  browsers: "last 3 version, safari 5, ie 8, ie 9"
  load-paths: []

# JavaScript minification
scripts:
  source: js
  output: js/min
  include:
    - "*.js"

# Watch mode
watch:
  addr: ":35729"
  debounce: 100ms
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
