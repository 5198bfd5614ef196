package config

import (
	"fmt"

	"github.com/dmitrijs2005/todoauth/internal/flagx"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "TODOAUTH"

// overlay applies the config file named by -c/-config (yaml or json, by
// extension) and TODOAUTH_<FIELD> environment variables on top of cfg.
// Environment beats file. Keys absent from both leave cfg untouched.
func overlay(cfg *Config, args []string) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)

	current := map[string]any{}
	if err := mapstructure.Decode(cfg, &current); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	for key, val := range current {
		v.SetDefault(key, val)
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path := flagx.ConfigFile(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
