// Package config loads scrollmarks settings from a file and the
// environment.
//
// The loader does not validate engine options itself. It hands the keys a
// user actually set to ScrollMarks.SetConfig, so a bad file fails the same
// way a bad script call does.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"scrollmarks/pkg/scrollmarks"
)

const (
	// BaseName is the config file name without extension. Any extension
	// viper understands is accepted.
	BaseName  = "scrollmarks"
	EnvPrefix = "SCROLLMARKS"

	KeyLogLevel = "logLevel"
)

// Config is the result of Load.
type Config struct {
	// File is the config file that was read, or empty.
	File     string
	LogLevel string
	// Options holds the engine options that were set explicitly, keyed by
	// their canonical names. Unknown keys are kept so SetConfig can reject
	// them.
	Options map[string]any
}

// Load reads configuration. path may name a file, a directory to search for
// scrollmarks.{yaml,json,toml}, or be empty to search the working
// directory. A missing file is only an error when path names one.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetDefault(KeyLogLevel, "info")

	envKeys := append([]string{KeyLogLevel}, scrollmarks.OptionNames()...)
	for _, key := range envKeys {
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	explicit, err := locate(v, fs, path)
	if err != nil {
		return nil, err
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		File:     v.ConfigFileUsed(),
		LogLevel: v.GetString(KeyLogLevel),
		Options:  make(map[string]any),
	}
	canonical := make(map[string]string)
	for _, name := range scrollmarks.OptionNames() {
		canonical[strings.ToLower(name)] = name
	}
	for _, key := range v.AllKeys() {
		if key == strings.ToLower(KeyLogLevel) || !v.IsSet(key) {
			continue
		}
		name, ok := canonical[key]
		if !ok {
			name = key
		}
		cfg.Options[name] = number(v.Get(key))
	}
	return cfg, nil
}

func locate(v *viper.Viper, fs afero.Fs, path string) (explicit bool, err error) {
	if path == "" {
		v.SetConfigName(BaseName)
		v.AddConfigPath(".")
		return false, nil
	}
	info, err := fs.Stat(path)
	if err != nil {
		return true, fmt.Errorf("error reading config file: %w", err)
	}
	if info.IsDir() {
		v.SetConfigName(BaseName)
		v.AddConfigPath(path)
		return false, nil
	}
	v.SetConfigFile(path)
	return true, nil
}

// number turns numeric strings from the environment into numbers. Other
// values pass through untouched.
func number(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return raw
}

// EnvName returns the environment variable that overrides key, for example
// SCROLLMARKS_SCROLL_THROTTLE for scrollThrottle.
func EnvName(key string) string {
	var b strings.Builder
	b.WriteString(EnvPrefix)
	b.WriteByte('_')
	for i, r := range key {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// Settings merges the loaded options over base.
func (c *Config) Settings(base scrollmarks.Settings) (scrollmarks.Settings, error) {
	return base.Apply(c.Options)
}

// Apply pushes the loaded options into a running instance.
func (c *Config) Apply(marks *scrollmarks.ScrollMarks) error {
	if len(c.Options) == 0 {
		return nil
	}
	return marks.SetConfig(c.Options)
}

// Keys returns the explicitly set option names in sorted order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.Options))
	for k := range c.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
