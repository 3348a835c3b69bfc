package via

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gobuffalo/envy"
)

// ServerConfig is the CLI/environment-facing configuration for
// cmd/via's entry point, precedence-layered the way buffkit's example
// app layers envy.Get defaults: an optional via.toml file provides
// base values, environment variables (loaded via envy) override it,
// and the zero-value fallbacks in DefaultServerConfig win only when
// neither is set.
type ServerConfig struct {
	Host    string `toml:"host"`
	Port    string `toml:"port"`
	DevMode bool   `toml:"dev_mode"`
}

// DefaultServerConfig returns via's out-of-the-box server defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{Host: "127.0.0.1", Port: "3000", DevMode: false}
}

// LoadServerConfig builds a ServerConfig from, in increasing priority:
// the built-in defaults, a via.toml file at tomlPath (if present), and
// environment variables (HOST, PORT, GO_ENV=development implies dev
// mode). Matches the precedence buffkit's examples/main.go applies
// informally via chained envy.Get defaults, made explicit here because
// SPEC_FULL's CLI carries no subcommands to express it interactively.
func LoadServerConfig(tomlPath string) ServerConfig {
	_ = envy.Load()

	cfg := DefaultServerConfig()

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err == nil {
			var fileCfg ServerConfig
			if _, err := toml.DecodeFile(tomlPath, &fileCfg); err == nil {
				if fileCfg.Host != "" {
					cfg.Host = fileCfg.Host
				}
				if fileCfg.Port != "" {
					cfg.Port = fileCfg.Port
				}
				cfg.DevMode = cfg.DevMode || fileCfg.DevMode
			}
		}
	}

	cfg.Host = envy.Get("HOST", cfg.Host)
	cfg.Port = envy.Get("PORT", cfg.Port)
	if envy.Get("GO_ENV", "") == "development" {
		cfg.DevMode = true
	}

	return cfg
}

// TestMode reports whether VIA_TEST_MODE disables the network
// listener, per spec.md §6 ("Environment. VIA_TEST_MODE=1 disables
// the network listener for unit tests.").
func TestMode() bool {
	return envy.Get("VIA_TEST_MODE", "") == "1"
}
