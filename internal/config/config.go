// Package config resolves the handful of environment-driven settings the
// installer needs, the way the teacher's internal/config package resolves
// turbo's own environment before handing a Config to every component.
package config

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/go-rpm/rpm/internal/rpmpath"
)

// EnvLogLevel is the environment variable that controls log verbosity.
const EnvLogLevel = "RPM_LOG_LEVEL"

// EnvRegistry overrides the default registry base URL.
const EnvRegistry = "RPM_REGISTRY"

// DefaultRegistry is used when EnvRegistry is unset.
const DefaultRegistry = "https://registry.npmjs.org"

// Config carries the resolved environment for one invocation of the engine.
type Config struct {
	Logger       hclog.Logger
	RegistryBase string
	StoreRoot    rpmpath.AbsolutePath
	NoColor      bool
	Interactive  bool
}

// New resolves a Config from the process environment.
func New() (*Config, error) {
	level := hclog.Info
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if parsed := hclog.LevelFromString(raw); parsed != hclog.NoLevel {
			level = parsed
		}
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "rpm",
		Level: level,
	})

	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	registryBase := os.Getenv(EnvRegistry)
	if registryBase == "" {
		registryBase = DefaultRegistry
	}
	registryBase = strings.TrimSuffix(registryBase, "/")

	noColor := os.Getenv("NO_COLOR") != "" && os.Getenv("FORCE_COLOR") == ""

	return &Config{
		Logger:       logger,
		RegistryBase: registryBase,
		StoreRoot:    rpmpath.AbsolutePath(home).Join(".rpm", "store"),
		NoColor:      noColor,
		Interactive:  isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("CI") == "",
	}, nil
}
