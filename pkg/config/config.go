// Package config loads the engine's ambient settings: the Temporal task
// queue name, the schema-convergence timing, the debounce default, and the
// git worktree lock TTL. File-based configuration is out of scope; this
// package layers struct defaults with environment overrides only, koanf
// provider on top of koanf provider.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/infrahub-io/computed-attributes/engine/core"
)

// durationKeys names every config key carrying a duration, so overrides for
// them go through core.ParseHumanDuration instead of koanf's own decoder —
// str2duration additionally accepts day/week units an operator might use for
// a worktree lock TTL or a debounce window.
var durationKeys = map[string]bool{
	"convergence.timeout":      true,
	"convergence.pollinterval": true,
	"worktree.lockttl":         true,
	"defaultdebounce":          true,
}

// EnvPrefix is the prefix every environment override must carry, e.g.
// CA_TEMPORAL__TASKQUEUE.
const EnvPrefix = "CA_"

// TemporalConfig names the task queue and namespace the worker registers
// against.
type TemporalConfig struct {
	HostPort  string `koanf:"hostport"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"taskqueue"`
}

// ConvergenceConfig carries the schema-convergence wait timing.
// schema.AwaitConvergence does not read it; it uses its own fixed
// 30s/200ms bounds.
type ConvergenceConfig struct {
	Timeout      time.Duration `koanf:"timeout"`
	PollInterval time.Duration `koanf:"pollinterval"`
}

// WorktreeConfig carries a TTL for a repository's named checkout lock.
// gitrepo.Manager does not read it: a checkout lock is held until the
// caller releases it, with no expiry.
type WorktreeConfig struct {
	LockTTL time.Duration `koanf:"lockttl"`
}

// Config is the engine's full ambient configuration.
type Config struct {
	Temporal        TemporalConfig    `koanf:"temporal"`
	Convergence     ConvergenceConfig `koanf:"convergence"`
	Worktree        WorktreeConfig    `koanf:"worktree"`
	DefaultDebounce time.Duration     `koanf:"defaultdebounce"`
}

// Default returns the engine's built-in configuration: a
// local Temporal dev server, a 30s/200ms convergence wait, a 10 minute
// worktree lock TTL, and the 0s debounce §6 specifies for every trigger.
func Default() Config {
	return Config{
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "computed-attributes",
		},
		Convergence: ConvergenceConfig{
			Timeout:      30 * time.Second,
			PollInterval: 200 * time.Millisecond,
		},
		Worktree: WorktreeConfig{
			LockTTL: 10 * time.Minute,
		},
		DefaultDebounce: 0,
	}
}

// Load layers environment variables (prefix CA_, "__" as the nesting
// separator, e.g. CA_TEMPORAL__TASKQUEUE) over Default().
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, err
	}
	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			key = strings.ReplaceAll(strings.ToLower(key), "__", ".")
			if durationKeys[key] {
				if d, err := core.ParseHumanDuration(value); err == nil {
					return key, d
				}
			}
			return key, value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
