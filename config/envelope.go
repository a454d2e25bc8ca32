// Package config holds the configuration envelope POLICY consumes,
// loadable from YAML documents: struct-tagged options plus an explicit
// Load/Validate pass rather than a global implicit singleton.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stealthpay/stealthcore/policy"
)

// Envelope is the on-disk/programmatic configuration recognized by POLICY.
type Envelope struct {
	Level      policy.Tier    `yaml:"level"`
	SplitCount *uint8         `yaml:"split_count,omitempty"`
	SplitDelay *time.Duration `yaml:"split_delay,omitempty"`
	UseRelayer *bool          `yaml:"use_relayer,omitempty"`
	Memo       []byte         `yaml:"memo,omitempty"`
}

// Load reads and validates an Envelope from a YAML file.
func Load(path string) (Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Envelope{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var env Envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Validate rejects configuration POLICY must never see: a zero split count
// or a negative delay.
func (e Envelope) Validate() error {
	if e.SplitCount != nil && *e.SplitCount == 0 {
		return fmt.Errorf("config: split_count must be >= 1")
	}
	if e.SplitDelay != nil && *e.SplitDelay < 0 {
		return fmt.Errorf("config: split_delay must be non-negative")
	}
	switch e.Level {
	case "", policy.Standard, policy.Enhanced, policy.Maximum:
	default:
		return fmt.Errorf("config: unknown privacy level %q", e.Level)
	}
	return nil
}

// ToPolicyOptions converts the envelope to policy.Options.
func (e Envelope) ToPolicyOptions() policy.Options {
	return policy.Options{
		Level:      e.Level,
		SplitCount: e.SplitCount,
		SplitDelay: e.SplitDelay,
		UseRelayer: e.UseRelayer,
		Memo:       e.Memo,
	}
}
