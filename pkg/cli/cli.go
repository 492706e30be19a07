// Package cli parses command line arguments for the takt demo host.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings parsed from command line arguments.
type Config struct {
	SongPath string        // path to the YAML song definition
	Tempo    float64       // transport tempo override in BPM (0 keeps the song's tempo)
	Timeout  time.Duration // execution timeout (0 means unlimited)
	LogLevel string        // log level (debug, info, warn, error)
	Headless bool          // run without a window, driving the tick from a timer
	ShowHelp bool          // help flag
}

// ParseArgs parses command line arguments into a Config.
// Environment variables HEADLESS, TIMEOUT and LOG_LEVEL are honored when the
// corresponding flag is not given.
func ParseArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("takt", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "terminate after the given number of seconds")
	fs.IntVar(&timeoutSec, "t", 0, "terminate after the given number of seconds (shorthand)")
	fs.Float64Var(&config.Tempo, "tempo", 0, "transport tempo override in BPM")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (shorthand)")
	fs.BoolVar(&config.Headless, "headless", false, "headless mode")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Environment variables (flags take precedence).
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.Tempo < 0 {
		return nil, fmt.Errorf("tempo must be non-negative, got %g", config.Tempo)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 {
		config.SongPath = fs.Arg(0)
	}

	return config, nil
}

// PrintHelp writes the usage message to stdout.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `takt - beat-quantized audio event scheduler

Usage:
  takt [options] [song.yaml]

Arguments:
  song.yaml     YAML song definition to load and play (optional)

Options:
  -t, --timeout <seconds>     terminate after the given number of seconds (default: unlimited)
  --tempo <bpm>               transport tempo override in BPM
  -l, --log-level <level>     log level: debug, info, warn, error (default: info)
  --headless                  headless mode (no window, timer-driven tick)
  -h, --help                  show this help

Environment Variables:
  HEADLESS=1                  enable headless mode
  TIMEOUT=<seconds>           execution timeout in seconds
  LOG_LEVEL=<level>           log level

Examples:
  takt song.yaml              play a song in a window
  takt --headless -t 10 song.yaml
  takt --tempo 140 song.yaml  play at 140 BPM regardless of the song's tempo
`)
}
