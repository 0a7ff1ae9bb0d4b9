package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sharecrm-io/fxcrm/internal/constants"
)

// Config represents the CLI configuration.
type Config struct {
	AppID         string `json:"app_id,omitempty"         yaml:"app_id,omitempty"`
	AppSecret     string `json:"app_secret,omitempty"     yaml:"app_secret,omitempty"`
	PermanentCode string `json:"permanent_code,omitempty" yaml:"permanent_code,omitempty"`
	OpenUserID    string `json:"open_user_id,omitempty"   yaml:"open_user_id,omitempty"`

	APIRoot    string `json:"api_root,omitempty"    yaml:"api_root,omitempty"`
	AuthRoot   string `json:"auth_root,omitempty"   yaml:"auth_root,omitempty"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`

	HTTPProxy  string `json:"http_proxy,omitempty"  yaml:"http_proxy,omitempty"`
	HTTPSProxy string `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty"`

	Output      string `json:"output,omitempty"       yaml:"output,omitempty"`
	NATSURL     string `json:"nats_url,omitempty"     yaml:"nats_url,omitempty"`
	NATSSubject string `json:"nats_subject,omitempty" yaml:"nats_subject,omitempty"`
}

// configKeys maps each settable key to its field.
var configKeys = map[string]func(*Config) *string{
	"app_id":         func(c *Config) *string { return &c.AppID },
	"app_secret":     func(c *Config) *string { return &c.AppSecret },
	"permanent_code": func(c *Config) *string { return &c.PermanentCode },
	"open_user_id":   func(c *Config) *string { return &c.OpenUserID },
	"api_root":       func(c *Config) *string { return &c.APIRoot },
	"auth_root":      func(c *Config) *string { return &c.AuthRoot },
	"api_version":    func(c *Config) *string { return &c.APIVersion },
	"http_proxy":     func(c *Config) *string { return &c.HTTPProxy },
	"https_proxy":    func(c *Config) *string { return &c.HTTPSProxy },
	"output":         func(c *Config) *string { return &c.Output },
	"nats_url":       func(c *Config) *string { return &c.NATSURL },
	"nats_subject":   func(c *Config) *string { return &c.NATSSubject },
}

var secretKeys = map[string]bool{
	"app_secret":     true,
	"permanent_code": true,
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage fxcrm CLI configuration including credentials and endpoints",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := maskSecrets(loadConfig())

			format, err := outputFormat()
			if err != nil {
				return err
			}

			done, err := encode(cmd.OutOrStdout(), format, config)
			if done || err != nil {
				return err
			}

			return displayConfigTable(cmd.OutOrStdout(), config)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value and persist it to the configuration file.

Keys: app_id, app_secret, permanent_code, open_user_id, api_root, auth_root,
api_version, http_proxy, https_proxy, output, nats_url, nats_subject.`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]

			config := loadConfig()

			err := setConfigValue(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			shown := value
			if secretKeys[key] {
				shown = constants.MaskedSecret
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s to %s\n", key, shown)

			return err
		},
	}
}

func loadConfig() *Config {
	config := &Config{}

	for key, field := range configKeys {
		*field(config) = viper.GetString(key)
	}

	return config
}

func setConfigValue(config *Config, key, value string) error {
	field, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	if key == "output" {
		switch value {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		default:
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}
	}

	*field(config) = value

	return nil
}

func maskSecrets(config *Config) *Config {
	masked := *config

	for key := range secretKeys {
		field := configKeys[key](&masked)
		if *field != "" {
			*field = constants.MaskedSecret
		}
	}

	return &masked
}

func displayConfigTable(w io.Writer, config *Config) error {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	title := cases.Title(language.English)

	table := tablewriter.NewWriter(w)
	table.Header("Setting", "Value")

	for _, key := range keys {
		value := *configKeys[key](config)
		if value == "" {
			value = constants.NotAvailable
		}

		_ = table.Append([]string{title.String(strings.ReplaceAll(key, "_", " ")), value})
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// configFilePath returns the file in use, or ~/.fxcrm/config.yml.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".fxcrm", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	for key, field := range configKeys {
		viper.Set(key, *field(config))
	}

	return nil
}
