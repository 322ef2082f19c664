package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/spatialbench/pkg/errors"
)

// fileConfig holds flag defaults read from --config, keyed by command name
// and then by flag name. Keys may use underscores in place of dashes:
//
//	[generate]
//	count = 500
//	min_points = 6
//
//	[bench]
//	provider = "gemini"
//	setting = ["rel_sybVp_nP", "rel_imgVp_aP"]
type fileConfig map[string]map[string]any

// loadConfig reads a TOML or YAML config file, chosen by extension.
func loadConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		_, err = toml.Decode(string(data), &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"unsupported config format %q (must be .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return cfg, nil
}

// apply sets the flags of cmd listed in its section. Flags given on the
// command line keep their value.
func (cfg fileConfig) apply(cmd *cobra.Command) error {
	values, ok := cfg[cmd.Name()]
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name := strings.ReplaceAll(key, "_", "-")
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return errors.New(errors.ErrCodeInvalidConfig, "[%s] unknown key %q", cmd.Name(), key)
		}
		if f.Changed {
			continue
		}
		if err := f.Value.Set(flagString(values[key])); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[%s] %s", cmd.Name(), key)
		}
	}
	return nil
}

// applyConfig loads --config once and applies the section of cmd.
func (c *CLI) applyConfig(cmd *cobra.Command) error {
	if c.configPath == "" {
		return nil
	}
	if c.config == nil {
		cfg, err := loadConfig(c.configPath)
		if err != nil {
			return err
		}
		c.config = cfg
		c.Logger.Debug("loaded config", "path", c.configPath, "sections", len(cfg))
	}
	return c.config.apply(cmd)
}

// flagString renders a decoded config value in flag syntax. Lists become
// comma-separated values.
func flagString(v any) string {
	switch v := v.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	default:
		return fmt.Sprint(v)
	}
}
