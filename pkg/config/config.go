// Package config loads typed configuration sections from the
// environment, optionally seeded from an env file: the -env flag when
// given, otherwise ./.env when one exists.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var (
	seedOnce sync.Once
	seedErr  error
)

// MustNew is New with a panic on failure. Configuration problems are
// boot-time problems; nothing sensible can be done with them later.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New populates a T from environment variables under the given prefix.
// The env file is exported into the process environment once; every
// later section reads the same seeded state.
func New[T any](prefix string) (*T, error) {
	seedOnce.Do(func() { seedErr = seedEnvironment() })
	if seedErr != nil {
		return nil, seedErr
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process %q config section: %w", prefix, err)
	}
	return &conf, nil
}

// seedEnvironment exports the env file's keys into the environment. A
// path given with -env must exist; the ./.env default is optional.
func seedEnvironment() error {
	path, required := envFilePath()
	if !required {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil
		}
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for key, value := range viper.AllSettings() {
		if err := os.Setenv(strings.ToUpper(key), fmt.Sprint(value)); err != nil {
			return fmt.Errorf("export %s from %s: %w", key, path, err)
		}
	}
	return nil
}

func envFilePath() (string, bool) {
	f := flag.Lookup("env")
	if f == nil {
		flag.String("env", "", "path to an env file")
		f = flag.Lookup("env")
	}
	if !flag.Parsed() {
		flag.Parse()
	}

	if path := strings.TrimSpace(f.Value.String()); path != "" {
		return path, true
	}
	return ".env", false
}
