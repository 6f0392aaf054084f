package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration file.
type Config struct {
	Stack struct {
		Data          int  `yaml:"data"`
		Return        int  `yaml:"return"`
		Padding       *int `yaml:"padding"`
		CheckInterval int  `yaml:"check_interval"`
	} `yaml:"stack"`

	Memory struct {
		Limit     uint `yaml:"limit"`
		CodeLimit int  `yaml:"code_limit"`
	} `yaml:"memory"`

	Console struct {
		LineSize int   `yaml:"line_size"`
		Echo     *bool `yaml:"echo"`
		Raw      *bool `yaml:"raw"`
	} `yaml:"console"`

	Boot struct {
		Image   string     `yaml:"image"`
		Sources stringList `yaml:"sources"`
		Save    string     `yaml:"save"`
	} `yaml:"boot"`
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadConfig reads and validates a config file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	defer f.Close()
	cfg, err := ReadConfig(f)
	return cfg, errors.Wrapf(err, "config %v", path)
}

// ReadConfig decodes and validates config; unknown keys are errors.
func ReadConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parse")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate() error {
	var errs ValidationError
	nonNegative := func(name string, n int) {
		if n < 0 {
			errs.Issues = append(errs.Issues, fmt.Sprintf("%v must not be negative, got %v", name, n))
		}
	}
	nonNegative("stack.data", cfg.Stack.Data)
	nonNegative("stack.return", cfg.Stack.Return)
	if cfg.Stack.Padding != nil {
		nonNegative("stack.padding", *cfg.Stack.Padding)
	}
	nonNegative("stack.check_interval", cfg.Stack.CheckInterval)
	nonNegative("memory.code_limit", cfg.Memory.CodeLimit)
	nonNegative("console.line_size", cfg.Console.LineSize)
	if lim := cfg.Memory.Limit; lim != 0 && lim <= addrDict {
		errs.Issues = append(errs.Issues, fmt.Sprintf("memory.limit must leave room past @%v, got %v", addrDict, lim))
	}
	if lim := cfg.Memory.Limit; lim > defaultMemLimit {
		errs.Issues = append(errs.Issues, fmt.Sprintf("memory.limit must not exceed %v cells, got %v", defaultMemLimit, lim))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// Options converts the config into VM options; zero values keep defaults.
func (cfg *Config) Options() []VMOption {
	var opts []VMOption
	if cfg.Stack.Data != 0 || cfg.Stack.Return != 0 {
		opts = append(opts, WithStackLimits(cfg.Stack.Data, cfg.Stack.Return))
	}
	if cfg.Stack.Padding != nil {
		opts = append(opts, WithStackPadding(*cfg.Stack.Padding))
	}
	if cfg.Stack.CheckInterval != 0 {
		opts = append(opts, WithBoundsCheckInterval(cfg.Stack.CheckInterval))
	}
	if cfg.Memory.Limit != 0 {
		opts = append(opts, WithMemLimit(cfg.Memory.Limit))
	}
	if cfg.Memory.CodeLimit != 0 {
		opts = append(opts, WithCodeLimit(cfg.Memory.CodeLimit))
	}
	if cfg.Console.LineSize != 0 {
		opts = append(opts, WithLineSize(cfg.Console.LineSize))
	}
	if cfg.Console.Echo != nil {
		opts = append(opts, WithEcho(*cfg.Console.Echo))
	}
	return opts
}

type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			if str = strings.TrimSpace(str); str != "" {
				items = append(items, str)
			}
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	default:
		return errors.Errorf("expected string or sequence for list but found %s", value.ShortTag())
	}
}
