// SPDX-License-Identifier: MIT

package mcmc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults of a sampling run.
const (
	// DefaultNumResults is the number of post-adaptation draws per chain.
	DefaultNumResults = 500
	// DefaultNumAdaptationSteps gives the (75, 25, 75) window layout.
	DefaultNumAdaptationSteps = 525
	// DefaultNumChains is the number of independent chains.
	DefaultNumChains = 4
	// DefaultTargetAcceptProb is the dual-averaging target.
	DefaultTargetAcceptProb = 0.75
	// DefaultInitStepSize is the step size of the first transition.
	DefaultInitStepSize = 0.1
	// DefaultMaxInitAttempts bounds the draws tried per chain for a state
	// with a finite target log density.
	DefaultMaxInitAttempts = 100
	// DefaultDiscardTuning drops adaptation steps from the draws and trace.
	DefaultDiscardTuning = true
)

// Config is the serializable form of a sampling run's settings.
//
// Example YAML:
//
//	num_results: 1000
//	num_adaptation_steps: 525
//	num_chains: 4
//	target_accept_prob: 0.75
//	seed: 42
type Config struct {
	NumResults         int     `yaml:"num_results" validate:"gte=0"`
	NumAdaptationSteps int     `yaml:"num_adaptation_steps" validate:"gte=0"`
	NumChains          int     `yaml:"num_chains" validate:"gte=1,lte=1024"`
	TargetAcceptProb   float64 `yaml:"target_accept_prob" validate:"gt=0,lt=1"`
	InitStepSize       float64 `yaml:"init_step_size" validate:"gt=0"`
	MaxInitAttempts    int     `yaml:"max_init_attempts" validate:"gte=1"`
	DiscardTuning      bool    `yaml:"discard_tuning"`
	Seed               int64   `yaml:"seed"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		NumResults:         DefaultNumResults,
		NumAdaptationSteps: DefaultNumAdaptationSteps,
		NumChains:          DefaultNumChains,
		TargetAcceptProb:   DefaultTargetAcceptProb,
		InitStepSize:       DefaultInitStepSize,
		MaxInitAttempts:    DefaultMaxInitAttempts,
		DiscardTuning:      DefaultDiscardTuning,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })
	return validate
}

// Validate checks every field against its bounds.
//
// Errors: ErrInvalidConfig naming the failing fields.
func (c Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msg := ""
			for i, fe := range verrs {
				if i > 0 {
					msg += "; "
				}
				msg += fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
			}
			return mcmcErrorf("Config.Validate", ErrInvalidConfig, "%s", msg)
		}
		return mcmcErrorf("Config.Validate", ErrInvalidConfig, "%v", err)
	}
	return nil
}

// LoadConfig reads YAML from r over DefaultConfig and validates the
// result. Unknown keys are rejected; empty input yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return cfg, mcmcErrorf("LoadConfig", err, "")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, mcmcErrorf("LoadConfig", ErrInvalidConfig, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigFile is LoadConfig on the file at path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultConfig(), mcmcErrorf("LoadConfigFile", err, "")
	}
	defer f.Close()
	return LoadConfig(f)
}
