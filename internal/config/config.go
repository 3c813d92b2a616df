package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBlacklist holds the service-name fragments that are never analyzed.
var DefaultBlacklist = []string{"tax", "taxes"}

// DefaultAliases expands short --services names into Cost Explorer
// service-name fragments.
var DefaultAliases = map[string][]string{
	"efs":           {"amazon elastic file system", "amazon efs"},
	"s3":            {"amazon simple storage service", "amazon s3"},
	"dynamodb":      {"amazon dynamodb"},
	"ec2":           {"amazon elastic compute cloud", "amazon ec2"},
	"ebs":           {"ec2 - other"},
	"vpc":           {"amazon virtual private cloud", "amazon vpc"},
	"ecr":           {"amazon elastic container registry", "amazon ecr", "amazon ec2 container registry"},
	"ecs":           {"amazon elastic container service", "amazon ecs"},
	"eks":           {"amazon elastic kubernetes service", "amazon eks", "amazon elastic container service for kubernetes"},
	"rds":           {"amazon relational database service", "amazon rds"},
	"opensearch":    {"amazon opensearch service", "amazon elasticsearch"},
	"elasticache":   {"amazon elasticache"},
	"elb":           {"elastic load balancing"},
	"cloudfront":    {"amazon cloudfront"},
	"route53":       {"amazon route 53", "amazon route53"},
	"ses":           {"amazon simple email service", "aws ses"},
	"sns":           {"amazon simple notification service"},
	"sqs":           {"amazon simple queue service"},
	"lambda":        {"aws lambda", "amazon lambda"},
	"docdb":         {"amazon documentdb", "amazon documentdb (with mongodb compatibility)"},
	"kms":           {"key management service"},
	"directconnect": {"aws direct connect"},
	"kinesis":       {"amazon kinesis"},
	"firehose":      {"kinesis firehose", "amazon data firehose"},
}

// Config holds awsfootprint configuration loaded from .awsfootprint.yaml.
type Config struct {
	Profile     string              `yaml:"profile"`
	Region      string              `yaml:"region"`
	Services    []string            `yaml:"services"`
	Blacklist   []string            `yaml:"blacklist"`
	Aliases     map[string][]string `yaml:"aliases"`
	Format      string              `yaml:"format"`
	Details     bool                `yaml:"details"`
	Granularity string              `yaml:"granularity"`
	Timeout     string              `yaml:"timeout"`
	CallTimeout string              `yaml:"call_timeout"`
	Concurrency int                 `yaml:"concurrency"`
}

// BlacklistOrDefault returns the configured blacklist, or DefaultBlacklist
// when none is set.
func (c Config) BlacklistOrDefault() []string {
	if c.Blacklist == nil {
		return DefaultBlacklist
	}
	return c.Blacklist
}

// AliasesOrDefault returns the configured alias table, or DefaultAliases
// when none is set.
func (c Config) AliasesOrDefault() map[string][]string {
	if c.Aliases == nil {
		return DefaultAliases
	}
	return c.Aliases
}

// TimeoutDuration parses the timeout string as a duration.
func (c Config) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout)
}

// CallTimeoutDuration parses the per-analyzer timeout as a duration.
func (c Config) CallTimeoutDuration() time.Duration {
	return parseDuration(c.CallTimeout)
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, _ := time.ParseDuration(s)
	return d
}

// Validate reports values that cannot be used.
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "json", "md":
	default:
		return fmt.Errorf("unsupported format %q (use json or md)", c.Format)
	}
	switch strings.ToUpper(c.Granularity) {
	case "", "MONTHLY", "DAILY":
	default:
		return fmt.Errorf("unsupported granularity %q (use MONTHLY or DAILY)", c.Granularity)
	}
	for key, val := range map[string]string{"timeout": c.Timeout, "call_timeout": c.CallTimeout} {
		if val == "" {
			continue
		}
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, val, err)
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}

// Load searches for .awsfootprint.yaml or .awsfootprint.yml in the given
// directory and returns the parsed config. Returns an empty Config if no file
// is found.
func Load(dir string) (Config, error) {
	candidates := []string{
		filepath.Join(dir, ".awsfootprint.yaml"),
		filepath.Join(dir, ".awsfootprint.yml"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return Config{}, fmt.Errorf("validate config %s: %w", path, err)
		}
		return cfg, nil
	}

	return Config{}, nil
}
