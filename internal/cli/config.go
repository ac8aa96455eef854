package cli

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/parley-dev/parley/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configFromDaemon bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify configuration",
	Long: `View or modify Parley configuration.

Without a subcommand, prints the effective configuration: the defaults,
overlaid with .parley/config.yaml, overlaid with PARLEY_* environment
variables (a .env file in the directory is read first).

Keys use dot notation (e.g., llm.model, store.dsn, daemon.port).`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one value in .parley/config.yaml",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

// RegisterConfigCommand adds the config command to root for CLI usage
func RegisterConfigCommand() {
	rootCmd.AddCommand(configCmd)
}

func init() {
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd)
	configCmd.PersistentFlags().BoolVar(&configFromDaemon, "daemon", false, "Show the configuration of the running daemon instead")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(GetRootDir()).LoadOrDefault()
	if err != nil {
		return nil, ErrConfigInvalid(err)
	}
	return cfg, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if configFromDaemon {
		client, cerr := NewClientFromRoot(GetRootDir())
		if cerr != nil {
			return cerr
		}
		cfg, err = client.Config(cmd.Context())
	} else {
		cfg, err = loadConfig()
	}
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printerFor(cmd).JSON(cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := getValueByKey(cfg, args[0])
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printerFor(cmd).JSON(map[string]any{"key": args[0], "value": value})
	}
	if section, ok := value.(map[string]any); ok {
		data, err := yaml.Marshal(section)
		if err != nil {
			return fmt.Errorf("failed to marshal value to YAML: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(GetRootDir())
	if !loader.Exists() {
		return ErrNotInitialized()
	}
	cfg, err := loader.Load()
	if err != nil {
		return ErrConfigInvalid(err)
	}

	key, value := args[0], args[1]
	if err := setValueByKey(cfg, key, value); err != nil {
		return err
	}
	if err := config.ValidateOrError(cfg); err != nil {
		return ErrConfigInvalid(err)
	}
	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	printerFor(cmd).Success("Set %s = %s", key, value)
	return nil
}

// configTree renders cfg as nested maps keyed by the YAML field names.
func configTree(cfg *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return tree, nil
}

func getValueByKey(cfg *config.Config, key string) (any, error) {
	tree, err := configTree(cfg)
	if err != nil {
		return nil, err
	}

	var node any = tree
	for _, part := range strings.Split(key, ".") {
		section, ok := node.(map[string]any)
		if !ok {
			return nil, unknownKey(key, nil)
		}
		node, ok = section[part]
		if !ok {
			return nil, unknownKey(key, section)
		}
	}
	return node, nil
}

func setValueByKey(cfg *config.Config, key, value string) error {
	tree, err := configTree(cfg)
	if err != nil {
		return err
	}

	parts := strings.Split(key, ".")
	parent := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := parent[part].(map[string]any)
		if !ok {
			return unknownKey(key, parent)
		}
		parent = next
	}

	leaf := parts[len(parts)-1]
	current, ok := parent[leaf]
	if !ok {
		return unknownKey(key, parent)
	}

	switch current.(type) {
	case map[string]any:
		return fmt.Errorf("%s is a section; set one of its keys instead", key)
	case string:
		parent[leaf] = value
	default:
		var parsed any
		if err := yaml.Unmarshal([]byte(value), &parsed); err != nil || parsed == nil {
			return fmt.Errorf("invalid value for %s: %s", key, value)
		}
		parent[leaf] = parsed
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	var updated config.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&updated); err != nil {
		return fmt.Errorf("invalid value for %s: %s", key, value)
	}

	*cfg = updated
	return nil
}

func unknownKey(key string, section map[string]any) error {
	if len(section) == 0 {
		return fmt.Errorf("unknown key: %s", key)
	}
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return NewCLIError(fmt.Sprintf("unknown key: %s", key), "Valid keys here are: "+strings.Join(keys, ", "))
}
