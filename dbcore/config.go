package dbcore

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the desired-state run configuration consumed by the CLI
// collaborator and passed down to the core pipeline. Grounded on the
// teacher's database.GeneratorConfig (database/database.go).
type Config struct {
	// ManagedSchemas is the allow-list of schema names the tool is
	// permitted to read and modify (spec.md §6 "--schemas", default
	// ["public"]).
	ManagedSchemas []string `yaml:"managed_schemas"`

	// AutoApprove skips the confirmation prompt (spec.md §6 "--auto-approve").
	AutoApprove bool `yaml:"-"`

	// DryRun computes and shows the plan without applying it (spec.md §6 "--dry-run").
	DryRun bool `yaml:"-"`

	// LockName, when non-empty, enables advisory locking (spec.md §6
	// "--lock-name").
	LockName string `yaml:"lock_name"`

	// LockTimeout bounds how long the executor polls for the advisory
	// lock (spec.md §6 "--lock-timeout").
	LockTimeout time.Duration `yaml:"-"`

	// DumpConcurrency bounds the number of concurrent introspection
	// queries (spec.md SPEC_FULL.md §3 errgroup wiring).
	DumpConcurrency int `yaml:"dump_concurrency"`
}

// DefaultConfig returns the configuration the CLI uses when no flags or
// config file override it.
func DefaultConfig() Config {
	return Config{
		ManagedSchemas:  []string{"public"},
		LockTimeout:     5 * time.Second,
		DumpConcurrency: 4,
	}
}

type yamlConfig struct {
	ManagedSchemas  []string `yaml:"managed_schemas"`
	LockName        string   `yaml:"lock_name"`
	DumpConcurrency int      `yaml:"dump_concurrency"`
}

// LoadConfigFile parses a YAML config file, matching the teacher's
// ParseGeneratorConfig (database/database.go), and merges it over base
// (non-zero fields in the file win).
func LoadConfigFile(path string, base Config) (Config, error) {
	if path == "" {
		return base, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	return ParseConfigBytes(buf, base)
}

// ParseConfigBytes parses YAML config content, matching the teacher's
// ParseGeneratorConfigString.
func ParseConfigBytes(buf []byte, base Config) (Config, error) {
	var parsed yamlConfig
	if err := yaml.Unmarshal(buf, &parsed); err != nil {
		return base, err
	}

	result := base
	if len(parsed.ManagedSchemas) > 0 {
		result.ManagedSchemas = parsed.ManagedSchemas
	}
	if parsed.LockName != "" {
		result.LockName = parsed.LockName
	}
	if parsed.DumpConcurrency != 0 {
		result.DumpConcurrency = parsed.DumpConcurrency
	}
	return result, nil
}
