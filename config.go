package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"ratiolens/fetch"
	"ratiolens/service"
)

// Config is the configuration struct for the service.
type Config struct {
	// GatewayURL is the trading terminal gateway endpoint.
	GatewayURL string
	// GatewayToken is the gateway access token, optional.
	GatewayToken string
	// PresetsPath is the filepath to a yaml ratio presets file, optional.
	PresetsPath string
	// OutputDir is the directory analysis artifacts are written to.
	OutputDir string
	// Ratio selects a preset by index or name for single-ratio runs.
	Ratio string
	// Days is the analysis window in days.
	Days int
	// Timeframe is the period code for analysis runs.
	Timeframe string
	// Batch analyzes every preset instead of prompting.
	Batch bool
	// CheckAvailability probes symbol data coverage instead of analyzing.
	CheckAvailability bool
	// ScheduleAt runs a daily batch analysis at the provided "15:04" time.
	ScheduleAt string
	// DBEndpoint is the analysis history database endpoint, optional.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string

	registeredFlags map[string]bool
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.GatewayURL == "" {
		errs = errors.Join(errs, fmt.Errorf("gateway url cannot be an empty string"))
	}
	if cfg.Days <= 0 {
		errs = errors.Join(errs, fmt.Errorf("day range must be positive, got %d", cfg.Days))
	}
	if cfg.Timeframe == "" {
		errs = errors.Join(errs, fmt.Errorf("timeframe cannot be an empty string"))
	}
	if cfg.ScheduleAt != "" {
		_, err := time.Parse("15:04", cfg.ScheduleAt)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("schedule time must use the 15:04 layout, got %q", cfg.ScheduleAt))
		}
	}
	if cfg.Batch && cfg.CheckAvailability {
		errs = errors.Join(errs, fmt.Errorf("batch and checkavailability are mutually exclusive"))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"gatewayurl", &cfg.GatewayURL, "the trading terminal gateway url"},
		{"gatewaytoken", &cfg.GatewayToken, "the trading terminal gateway access token"},
		{"presets", &cfg.PresetsPath, "the filepath to a yaml ratio presets file"},
		{"outputdir", &cfg.OutputDir, "the directory analysis artifacts are written to"},
		{"ratio", &cfg.Ratio, "the preset to analyze, by index or name"},
		{"days", &cfg.Days, "the analysis window in days"},
		{"timeframe", &cfg.Timeframe, "the period code for analysis runs"},
		{"batch", &cfg.Batch, "analyze every preset instead of prompting"},
		{"checkavailability", &cfg.CheckAvailability, "probe symbol data coverage instead of analyzing"},
		{"scheduleat", &cfg.ScheduleAt, "run a daily batch analysis at the provided 15:04 time"},
		{"dbendpoint", &cfg.DBEndpoint, "the analysis history database endpoint"},
		{"dbuser", &cfg.DBUser, "the analysis history database user"},
		{"dbpass", &cfg.DBPass, "the analysis history database pass"},
	}
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	// Apply defaults for unset inputs.
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = fetch.BaseURL
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Days == 0 {
		cfg.Days = service.DefaultDays
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = service.DefaultTimeframeCode
	}

	return cfg.Validate()
}
