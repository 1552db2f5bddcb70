// SPDX-License-Identifier: MIT

package mcmc_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/mcmc"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := mcmc.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 525, cfg.NumAdaptationSteps)
	assert.True(t, cfg.DiscardTuning)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := mcmc.LoadConfig(strings.NewReader(`
num_results: 1000
num_chains: 8
target_accept_prob: 0.6
discard_tuning: false
seed: 42
`))
	require.NoError(t, err)

	want := mcmc.DefaultConfig()
	want.NumResults = 1000
	want.NumChains = 8
	want.TargetAcceptProb = 0.6
	want.DiscardTuning = false
	want.Seed = 42
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}

	empty, err := mcmc.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, mcmc.DefaultConfig(), empty)
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "num_draws: 10\n",
		"bad type":        "num_chains: many\n",
		"no chains":       "num_chains: 0\n",
		"accept too high": "target_accept_prob: 1.5\n",
		"zero step":       "init_step_size: 0\n",
		"negative budget": "num_adaptation_steps: -1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := mcmc.LoadConfig(strings.NewReader(doc))
			assert.ErrorIs(t, err, mcmc.ErrInvalidConfig)
		})
	}
}

func TestValidateNamesField(t *testing.T) {
	cfg := mcmc.DefaultConfig()
	cfg.MaxInitAttempts = 0
	err := cfg.Validate()
	require.ErrorIs(t, err, mcmc.ErrInvalidConfig)
	assert.ErrorContains(t, err, "MaxInitAttempts")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcmc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_results: 7\n"), 0o600))
	cfg, err := mcmc.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.NumResults)

	_, err = mcmc.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
