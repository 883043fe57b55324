// Package cli holds the small pieces poolctl's command handlers share:
// version reporting, a zap-backed logger, and the on-disk Config loaded via
// the --config flag and applied as defaults for a scenario's policy and log
// verbosity. Argument parsing, usage text and exit handling are left to
// github.com/urfave/cli/v2 itself rather than hand-rolled here.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version information for the poolctl binary.
const (
	Version   = "0.1.0"
	BuildDate = "2026-07-30"
)

// CommitSHA is set via -ldflags "-X" at build time.
var CommitSHA = "unknown"

// VersionInfo is the structured form PrintVersion emits.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	CommitSHA string `json:"commit_sha"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns structured version information.
func GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion prints version information as plain text or JSON.
func PrintVersion(toolName string, jsonOutput bool) {
	info := GetVersionInfo()

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":         toolName,
			"version_info": info,
		}, "", "  ")
		if err == nil {
			fmt.Println(string(data))
			return
		}

		fmt.Fprintf(os.Stderr, "failed to marshal version info: %v\n", err)
	}

	fmt.Printf("%s v%s\n", toolName, info.Version)
	fmt.Printf("build date: %s\n", info.BuildDate)

	if info.CommitSHA != "unknown" && info.CommitSHA != "" {
		fmt.Printf("commit: %s\n", info.CommitSHA)
	}

	fmt.Printf("go version: %s\n", info.GoVersion)
	fmt.Printf("platform: %s/%s\n", info.Platform, info.Arch)
}

// NewLogger builds the process-wide zap logger. verbose raises the level to
// debug; otherwise only info and above are emitted. Output is a single
// console-encoded line per entry, matching the density of a CLI tool rather
// than a service's JSON logs.
func NewLogger(verbose bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.CallerKey = ""

	return cfg.Build()
}

// Config is poolctl's on-disk configuration, loaded before flags are
// applied so flags can still override it.
type Config struct {
	Verbose       bool   `json:"verbose"`
	DefaultPolicy string `json:"default_policy"`
	WorkDir       string `json:"work_dir"`
}

// LoadConfig reads configuration from configPath, returning defaults if the
// path is empty or the file does not exist.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{WorkDir: ".", DefaultPolicy: "first-fit"}

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}

		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig writes c to configPath as indented JSON.
func (c *Config) SaveConfig(configPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
