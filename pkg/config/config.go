// Package config loads the target description from YAML.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/raymyers/ralph-tc/pkg/asmgen"
	"github.com/raymyers/ralph-tc/pkg/regalloc"
	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
)

// ErrInvalid is returned for a configuration that fails validation.
var ErrInvalid = errors.New("invalid config")

// MinRegisters is the smallest usable pool: an arithmetic instruction
// needs its result and both operands in registers at once.
const MinRegisters = 3

type Config struct {
	Registers      []string `yaml:"registers"`
	ReturnRegister string   `yaml:"return_register"`
	Section        string   `yaml:"section"`
	Eviction       string   `yaml:"eviction"`
}

// Default returns the reference target.
func Default() *Config {
	opts := asmgen.DefaultOptions()

	return &Config{
		Registers:      opts.Registers,
		ReturnRegister: opts.ReturnRegister,
		Section:        opts.Section,
		Eviction:       opts.Policy.String(),
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", path)
	}

	return c, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected; empty input yields the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(ErrInvalid, "decode: %v", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks the pool and the policy.
func (c *Config) Validate() error {
	if len(c.Registers) < MinRegisters {
		return errors.Wrap(ErrInvalid, "need at least %d registers, got %d", MinRegisters, len(c.Registers))
	}

	seen := make(map[string]bool, len(c.Registers))
	for _, r := range c.Registers {
		if r == "" {
			return errors.Wrap(ErrInvalid, "empty register name")
		}
		if seen[r] {
			return errors.Wrap(ErrInvalid, "duplicate register %q", r)
		}
		seen[r] = true
	}

	if c.ReturnRegister == "" {
		return errors.Wrap(ErrInvalid, "no return register")
	}
	if seen[c.ReturnRegister] {
		return errors.Wrap(ErrInvalid, "return register %q is in the allocation pool", c.ReturnRegister)
	}

	if _, err := regalloc.ParsePolicy(c.Eviction); err != nil {
		return errors.Wrap(ErrInvalid, "%v", err)
	}

	return nil
}

// Options converts c for the code generator. c must be valid.
func (c *Config) Options() asmgen.Options {
	policy, _ := regalloc.ParsePolicy(c.Eviction)

	return asmgen.Options{
		Registers:      append([]string(nil), c.Registers...),
		ReturnRegister: c.ReturnRegister,
		Section:        c.Section,
		Policy:         policy,
	}
}
