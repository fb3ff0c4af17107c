// Package config provides configuration loading for the authz demo server.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-action-authz/internal/telemetry"
)

// EnvPrefix is the prefix of environment variables read by the demo server.
const EnvPrefix = "AUTHZ_DEMO"

const (
	// FrameworkChi serves the demo with chi and resolves actions from its route table
	FrameworkChi = "chi"

	// FrameworkEcho serves the demo with echo and uses echo route names as actions
	FrameworkEcho = "echo"
)

const (
	// RuleAllow permits every request
	RuleAllow = "allow"

	// RuleDeny forbids every request
	RuleDeny = "deny"

	// RuleRole permits callers presenting one of the configured roles
	RuleRole = "role"

	// RuleCedar asks the Cedar policy set whether the caller may perform the action
	RuleCedar = "cedar"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Framework selects the HTTP framework serving the demo (chi or echo).
	// Defaults to chi.
	Framework string `yaml:"framework,omitempty"`

	// CedarPolicyFile is the path to the Cedar policies used by cedar rules,
	// relative to the config file unless absolute
	CedarPolicyFile string `yaml:"cedarPolicyFile,omitempty"`

	// Rules lists the authorization rule of each action
	Rules []RuleConfig `yaml:"rules"`

	// Telemetry configures OpenTelemetry metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// RuleConfig assigns a rule to one action
type RuleConfig struct {
	// Action is the action identifier, e.g. "GET /things/{id}"
	Action string `yaml:"action"`

	// Rule is one of allow, deny, role or cedar
	Rule string `yaml:"rule"`

	// Roles are the roles accepted by a role rule
	Roles []string `yaml:"roles,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Relative policy paths are relative to the config file.
	if config.CedarPolicyFile != "" && !filepath.IsAbs(config.CedarPolicyFile) {
		config.CedarPolicyFile = filepath.Join(filepath.Dir(loaderCfg.path), config.CedarPolicyFile)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetFramework returns the framework, using chi if not specified
func (c *Config) GetFramework() string {
	if c.Framework == "" {
		return FrameworkChi
	}
	return c.Framework
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch c.GetFramework() {
	case FrameworkChi, FrameworkEcho:
	default:
		return fmt.Errorf("framework must be %s or %s, got %s", FrameworkChi, FrameworkEcho, c.Framework)
	}

	actions := make(map[string]bool)
	for i, rule := range c.Rules {
		if rule.Action == "" {
			return fmt.Errorf("rules[%d]: action is required", i)
		}
		if actions[rule.Action] {
			return fmt.Errorf("rules[%d]: duplicate action '%s'", i, rule.Action)
		}
		actions[rule.Action] = true

		if err := c.validateRule(&rule, i); err != nil {
			return err
		}
	}

	return c.Telemetry.Validate()
}

// validateRule validates a single rule configuration
func (c *Config) validateRule(rule *RuleConfig, index int) error {
	prefix := fmt.Sprintf("rules[%d] (%s)", index, rule.Action)

	switch rule.Rule {
	case RuleAllow, RuleDeny:
		return nil
	case RuleRole:
		if len(rule.Roles) == 0 {
			return fmt.Errorf("%s: roles are required for role rules", prefix)
		}
		return nil
	case RuleCedar:
		if c.CedarPolicyFile == "" {
			return fmt.Errorf("%s: cedarPolicyFile is required for cedar rules", prefix)
		}
		return nil
	case "":
		return fmt.Errorf("%s: rule is required", prefix)
	default:
		return fmt.Errorf("%s: unknown rule '%s'", prefix, rule.Rule)
	}
}
