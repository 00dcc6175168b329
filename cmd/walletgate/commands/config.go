package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/dompetku/walletgate/internal/app"
)

// envPrefix marks walletgate variables. WALLETGATE_API__BASE_URL sets api.base_url.
const envPrefix = "WALLETGATE_"

// The prefix is shared with command inputs (WALLETGATE_PASSWORD, WALLETGATE_PIN)
// and the env credential store (WALLETGATE_ACCESS_TOKEN), so only these keys are
// read as configuration.
var (
	configSections = []string{"api", "auth", "server", "shutdown", "donation"}
	configTopLevel = []string{"log_level", "log_format"}
)

// isConfigKey reports whether a dotted koanf key belongs to app.Config.
func isConfigKey(key string) bool {
	if slices.Contains(configTopLevel, key) {
		return true
	}
	section, _, nested := strings.Cut(key, ".")
	return nested && slices.Contains(configSections, section)
}

// loadConfig builds the configuration. Later sources win: the TOML file at
// configPath, then WALLETGATE_ variables, then flags set on the command line.
// Whatever is still empty gets its default before validation.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := k.Load(envProvider(environFunc), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(flagValues(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	config := &app.Config{}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// envProvider maps WALLETGATE_SECTION__FIELD to section.field and drops
// variables that are not configuration.
func envProvider(environFunc func() []string) *env.Env {
	return env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			stripped := strings.TrimPrefix(key, envPrefix)
			nested := strings.ToLower(strings.ReplaceAll(stripped, "__", "."))
			if !isConfigKey(nested) {
				return "", nil
			}
			return nested, value
		},
		EnvironFunc: environFunc,
	})
}

// flagValues collects explicitly set config flags, parents included.
// --api--base-url becomes api.base_url and --log-level becomes log_level.
// Unset flags are left out so their defaults do not mask the file or environment.
func flagValues(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	for _, name := range cmd.FlagNames() {
		key := strings.ReplaceAll(strings.ReplaceAll(name, "--", "."), "-", "_")
		if !isConfigKey(key) || !cmd.IsSet(name) {
			continue
		}
		if value := cmd.Value(name); value != nil {
			values[key] = value
		}
	}

	return values
}
