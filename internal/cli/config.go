package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ossl/internal/config"
	"github.com/mrz1836/ossl/internal/native/sim"
	"github.com/mrz1836/ossl/internal/output"
	osslerrs "github.com/mrz1836/ossl/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: groupSetup,
	Short:   "Manage configuration",
	Long:    `View and modify ossl configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.ossl/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  ossl config init
  ossl config init --force`,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings.`,
	Example: `  ossl config show
  ossl config show -o json`,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.`,
	Example: `  ossl config get backend.variant
  ossl config get rand.encoding
  ossl config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.
The configuration file will be updated immediately.`,
	Example: `  ossl config set backend.variant openssl-1.1.1
  ossl config set rand.rate 10
  ossl config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	c := GetCmdContext(cmd).Config
	configPath := config.Path(c.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return osslerrs.WithSuggestion(
			osslerrs.WithDetails(osslerrs.ErrConfigExists, map[string]string{"path": configPath}),
			"run 'ossl config init --force' to replace it with defaults",
		)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = c.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - backend.variant: Simulated library when none is linked")
	outln(w, "  - rand.size, rand.encoding: Defaults for 'ossl rand'")
	outln(w, "  - rand.rate, rand.burst: Batch throttling for 'ossl rand --count'")
	outln(w, "  - output.default_format: Output format (text/json)")
	outln(w, "  - logging.level: Log level (off/error/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	if cc.Formatter.Format() == output.FormatJSON {
		return displayConfigJSON(w, cc.Config)
	}
	return displayConfigText(w, cc.Config)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	path := args[0]

	value, err := getConfigValue(GetCmdContext(cmd).Config, path)
	if err != nil {
		return osslerrs.WithSuggestion(
			osslerrs.ErrNotFound,
			fmt.Sprintf("configuration path '%s' not found", path),
		)
	}

	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]
	c := GetCmdContext(cmd).Config

	if _, err := getConfigValue(c, path); err != nil {
		return osslerrs.WithSuggestion(
			osslerrs.ErrNotFound,
			fmt.Sprintf("configuration path '%s' not found", path),
		)
	}

	configPath := config.Path(c.Home)
	currentCfg, err := config.Load(configPath)
	if err != nil {
		currentCfg = config.Defaults()
		currentCfg.Home = c.Home
	}

	if err := setConfigValue(currentCfg, path, value); err != nil {
		return err
	}

	if err := config.Save(currentCfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", path, value)
	return nil
}

func unknownKey(section, key string) error {
	details := map[string]string{"key": key}
	if section != "" {
		details["section"] = section
	}
	return osslerrs.WithDetails(osslerrs.ErrUnknownConfigKey, details)
}

func invalidValue(value, valid string) error {
	return osslerrs.WithDetails(
		osslerrs.ErrInvalidValue,
		map[string]string{"value": value, "valid": valid},
	)
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, error) {
	parts := strings.Split(path, ".")

	switch len(parts) {
	case 1:
		if parts[0] == "home" {
			return c.Home, nil
		}
		return "", unknownKey("", parts[0])
	case 2:
		switch parts[0] {
		case "backend":
			return getBackendValue(c, parts[1])
		case "rand":
			return getRandValue(c, parts[1])
		case "output":
			return getOutputValue(c, parts[1])
		case "logging":
			return getLoggingValue(c, parts[1])
		default:
			return "", unknownKey(parts[0], parts[1])
		}
	default:
		return "", osslerrs.WithDetails(
			osslerrs.ErrUnknownConfigKey,
			map[string]string{"path": path},
		)
	}
}

func getBackendValue(c *config.Config, key string) (string, error) {
	if key == "variant" {
		return c.Backend.Variant, nil
	}
	return "", unknownKey("backend", key)
}

func getRandValue(c *config.Config, key string) (string, error) {
	switch key {
	case "size":
		return strconv.Itoa(c.Rand.Size), nil
	case "encoding":
		return c.Rand.Encoding, nil
	case "rate":
		return strconv.FormatFloat(c.Rand.Rate, 'g', -1, 64), nil
	case "burst":
		return strconv.Itoa(c.Rand.Burst), nil
	case "keep_devices_open":
		return strconv.FormatBool(c.Rand.KeepDevicesOpen), nil
	default:
		return "", unknownKey("rand", key)
	}
}

func getOutputValue(c *config.Config, key string) (string, error) {
	switch key {
	case "default_format":
		return c.Output.DefaultFormat, nil
	case "verbose":
		return strconv.FormatBool(c.Output.Verbose), nil
	case "color":
		return c.Output.Color, nil
	default:
		return "", unknownKey("output", key)
	}
}

func getLoggingValue(c *config.Config, key string) (string, error) {
	switch key {
	case "level":
		return c.Logging.Level, nil
	case "file":
		return c.Logging.File, nil
	case "format":
		return c.Logging.Format, nil
	default:
		return "", unknownKey("logging", key)
	}
}

// setConfigValue sets a value in the config using dot notation.
func setConfigValue(c *config.Config, path, value string) error {
	parts := strings.Split(path, ".")

	switch len(parts) {
	case 1:
		if parts[0] == "home" {
			c.Home = value
			return nil
		}
		return unknownKey("", parts[0])
	case 2:
		switch parts[0] {
		case "backend":
			return setBackendValue(c, parts[1], value)
		case "rand":
			return setRandValue(c, parts[1], value)
		case "output":
			return setOutputValue(c, parts[1], value)
		case "logging":
			return setLoggingValue(c, parts[1], value)
		default:
			return unknownKey(parts[0], parts[1])
		}
	default:
		return osslerrs.WithDetails(
			osslerrs.ErrUnknownConfigKey,
			map[string]string{"path": path},
		)
	}
}

func setBackendValue(c *config.Config, key, value string) error {
	if key != "variant" {
		return unknownKey("backend", key)
	}
	v, err := sim.ParseVariant(value)
	if err != nil {
		return invalidValue(value, "openssl-3.0, openssl-1.1.1, openssl-1.0.2, or boringssl")
	}
	c.Backend.Variant = string(v)
	return nil
}

func setRandValue(c *config.Config, key, value string) error {
	switch key {
	case "size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return invalidValue(value, "a positive byte count")
		}
		c.Rand.Size = n
	case "encoding":
		if !slices.Contains(randEncodings, value) {
			return invalidValue(value, "hex, base64, or raw")
		}
		c.Rand.Encoding = value
	case "rate":
		r, err := strconv.ParseFloat(value, 64)
		if err != nil || r < 0 {
			return invalidValue(value, "batches per second, 0 for unlimited")
		}
		c.Rand.Rate = r
	case "burst":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return invalidValue(value, "a count of at least 1")
		}
		c.Rand.Burst = n
	case "keep_devices_open":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalidValue(value, "true or false")
		}
		c.Rand.KeepDevicesOpen = b
	default:
		return unknownKey("rand", key)
	}
	return nil
}

func setOutputValue(c *config.Config, key, value string) error {
	switch key {
	case "default_format":
		if value != "text" && value != "json" && value != "auto" {
			return invalidValue(value, "text, json, or auto")
		}
		c.Output.DefaultFormat = value
	case "verbose":
		c.Output.Verbose = value == "true"
	case "color":
		if value != "auto" && value != "always" && value != "never" {
			return invalidValue(value, "auto, always, or never")
		}
		c.Output.Color = value
	default:
		return unknownKey("output", key)
	}
	return nil
}

func setLoggingValue(c *config.Config, key, value string) error {
	switch key {
	case "level":
		if !slices.Contains([]string{"off", "error", "debug"}, value) {
			return invalidValue(value, "off, error, or debug")
		}
		c.Logging.Level = value
	case "file":
		c.Logging.File = value
	case "format":
		if value != "text" && value != "json" {
			return invalidValue(value, "text or json")
		}
		c.Logging.Format = value
	default:
		return unknownKey("logging", key)
	}
	return nil
}

// displayConfigText shows the config in text format.
func displayConfigText(w io.Writer, c *config.Config) error {
	outln(w, "Configuration:")
	outln(w)
	out(w, "  Home: %s\n", c.Home)
	outln(w)
	outln(w, "  Backend:")
	out(w, "    variant: %s\n", c.Backend.Variant)
	outln(w)
	outln(w, "  Rand:")
	out(w, "    size: %d\n", c.Rand.Size)
	out(w, "    encoding: %s\n", c.Rand.Encoding)
	rate := "unlimited"
	if c.Rand.Rate > 0 {
		rate = strconv.FormatFloat(c.Rand.Rate, 'g', -1, 64) + "/s"
	}
	out(w, "    rate: %s\n", rate)
	out(w, "    burst: %d\n", c.Rand.Burst)
	out(w, "    keep_devices_open: %t\n", c.Rand.KeepDevicesOpen)
	outln(w)
	outln(w, "  Output:")
	out(w, "    default_format: %s\n", c.Output.DefaultFormat)
	out(w, "    verbose: %t\n", c.Output.Verbose)
	out(w, "    color: %s\n", c.Output.Color)
	outln(w)
	outln(w, "  Logging:")
	out(w, "    level: %s\n", c.Logging.Level)
	out(w, "    file: %s\n", c.Logging.File)
	out(w, "    format: %s\n", c.Logging.Format)

	return nil
}

// displayConfigJSON shows the config in JSON format.
func displayConfigJSON(w io.Writer, c *config.Config) error {
	type configJSON struct {
		Version int    `json:"version"`
		Home    string `json:"home"`
		Backend struct {
			Variant string `json:"variant"`
		} `json:"backend"`
		Rand struct {
			Size            int     `json:"size"`
			Encoding        string  `json:"encoding"`
			Rate            float64 `json:"rate"`
			Burst           int     `json:"burst"`
			KeepDevicesOpen bool    `json:"keep_devices_open"`
		} `json:"rand"`
		Output struct {
			DefaultFormat string `json:"default_format"`
			Color         string `json:"color"`
			Verbose       bool   `json:"verbose"`
		} `json:"output"`
		Logging struct {
			Level  string `json:"level"`
			File   string `json:"file"`
			Format string `json:"format"`
		} `json:"logging"`
	}

	outCfg := configJSON{
		Version: c.Version,
		Home:    c.Home,
	}
	outCfg.Backend.Variant = c.Backend.Variant
	outCfg.Rand.Size = c.Rand.Size
	outCfg.Rand.Encoding = c.Rand.Encoding
	outCfg.Rand.Rate = c.Rand.Rate
	outCfg.Rand.Burst = c.Rand.Burst
	outCfg.Rand.KeepDevicesOpen = c.Rand.KeepDevicesOpen
	outCfg.Output.DefaultFormat = c.Output.DefaultFormat
	outCfg.Output.Color = c.Output.Color
	outCfg.Output.Verbose = c.Output.Verbose
	outCfg.Logging.Level = c.Logging.Level
	outCfg.Logging.File = c.Logging.File
	outCfg.Logging.Format = c.Logging.Format

	return writeJSON(w, outCfg)
}
