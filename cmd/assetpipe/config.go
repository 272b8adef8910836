package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yacobolo/assetpipe"
)

const (
	defaultConfigPath = ".assetpipe.yaml"
	envPrefix         = "ASSETPIPE_"
)

var k = koanf.New(".")

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	// Resolve config file path from flag
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// Load config file and env vars
	if err := loadConfigFromPath(configPath); err != nil {
		return err
	}

	// 3. CLI flags (highest precedence, only flags that were explicitly set)
	fs := cmd.Flags()
	if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return f.Name, posflag.FlagVal(fs, f)
	}), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

// envKeys restores dashes that the "_" to "." mapping cannot express.
var envKeys = strings.NewReplacer("load.paths", "load-paths", "output.format", "output-format")

// loadConfigFromPath loads configuration from a file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// 1. Config file (lowest precedence among providers)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// 2. Environment variables (ASSETPIPE_* prefix)
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		// ASSETPIPE_STYLES_SOURCE -> styles.source
		// ASSETPIPE_STYLES_LOAD_PATHS -> styles.load-paths
		// ASSETPIPE_VERBOSE -> verbose
		key = envKeys.Replace(strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(key, envPrefix)),
			"_", ".",
		))
		if strings.Contains(value, ",") {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// buildConfig constructs the library's Config struct from koanf state.
func buildConfig(log *zap.Logger) assetpipe.Config {
	def := assetpipe.DefaultConfig()

	return assetpipe.Config{
		Root: getStringWithFallback("root", "root", def.Root),

		StyleDir:      getStringWithFallback("styles-source", "styles.source", def.StyleDir),
		StyleIncludes: getStringsWithFallback("", "styles.include", def.StyleIncludes),
		StyleOutput:   getStringWithFallback("styles-output", "styles.output", def.StyleOutput),
		Browsers:      getStringWithFallback("browsers", "styles.browsers", def.Browsers),
		LoadPaths:     getStringsWithFallback("load-path", "styles.load-paths", nil),

		ScriptDir:      getStringWithFallback("scripts-source", "scripts.source", def.ScriptDir),
		ScriptIncludes: getStringsWithFallback("", "scripts.include", def.ScriptIncludes),
		ScriptOutput:   getStringWithFallback("scripts-output", "scripts.output", def.ScriptOutput),

		SourceMaps: getBoolWithFallback("sourcemaps", "sourcemaps", def.SourceMaps),

		LiveReloadAddr: getStringWithFallback("addr", "watch.addr", def.LiveReloadAddr),
		Debounce:       getDurationWithFallback("debounce", "watch.debounce", def.Debounce),

		Ignore: getStringsWithFallback("ignore", "ignore", nil),

		Logger: log,
	}
}

// reportOptions constructs the reporter settings from koanf state.
func reportOptions() assetpipe.ReportOptions {
	return assetpipe.ReportOptions{
		UseColors:  assetpipe.ShouldUseColors(getBoolWithFallback("color", "color", false)),
		PrintLines: getBoolWithFallback("print-lines", "print-lines", true),
	}
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getStringsWithFallback checks the flag key first, then the config file key, then returns the default.
// A scalar config value is treated as a single-element list.
func getStringsWithFallback(flagKey, configKey string, defaultVal []string) []string {
	for _, key := range []string{flagKey, configKey} {
		if key == "" || !k.Exists(key) {
			continue
		}
		if v := k.Strings(key); len(v) > 0 {
			return v
		}
		if v, ok := k.Get(key).(string); ok && v != "" {
			return []string{v}
		}
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getDurationWithFallback checks the flag key first, then the config file key, then returns the default.
func getDurationWithFallback(flagKey, configKey string, defaultVal time.Duration) time.Duration {
	if k.Exists(flagKey) {
		return k.Duration(flagKey)
	}
	if k.Exists(configKey) {
		return k.Duration(configKey)
	}
	return defaultVal
}
