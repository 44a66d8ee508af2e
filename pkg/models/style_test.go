package models

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParametersValid(t *testing.T) {
	p := DefaultParameters()
	assert.NoError(t, p.Validate())
	assert.Equal(t, 0.75, p.Strength)
	assert.Equal(t, 20, p.Steps)
	assert.Equal(t, 42, p.Seed)
	assert.True(t, p.UseRandomSeed)
}

func TestParametersBounds(t *testing.T) {
	cases := map[string]func(p *Parameters){
		"strength":  func(p *Parameters) { p.Strength = 1.01 },
		"steps low": func(p *Parameters) { p.Steps = 0 },
		"steps":     func(p *Parameters) { p.Steps = 51 },
		"seed":      func(p *Parameters) { p.Seed = 1000000 },
		"guidance":  func(p *Parameters) { p.GuidanceScale = 0.5 },
		"adaptor":   func(p *Parameters) { p.AdaptorConditioning = 2.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultParameters()
			mutate(&p)
			err := p.Validate()
			assert.True(t, errors.Is(err, ErrInvalidParameters))
		})
	}

	edge := Parameters{Strength: 0, Steps: 1, Seed: 999999, GuidanceScale: 20, AdaptorConditioning: 0.5}
	assert.NoError(t, edge.Validate())
}

func TestRandomSeedInRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		assert.NoError(t, ValidateSeed(RandomSeed(r)))
	}
}

func TestPresetsAndModels(t *testing.T) {
	assert.Len(t, Models, 4)
	assert.Len(t, BuiltinPresets, 4)
	_, ok := FindModel(DefaultModelID)
	assert.True(t, ok)
	_, ok = FindModel("dall-e")
	assert.False(t, ok)
	assert.True(t, IsBuiltinPreset(DefaultPresetID))
	assert.False(t, IsBuiltinPreset("custom-1"))

	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "custom-1700000000123", CustomPresetID(ts))
}

func TestJobStatus(t *testing.T) {
	assert.True(t, JobRunning.Active())
	assert.False(t, JobRunning.Terminal())
	for _, s := range []JobStatus{JobCompleted, JobCancelled, JobFailed} {
		assert.True(t, s.Terminal())
		assert.False(t, s.Active())
	}
	assert.False(t, JobIdle.Terminal())
}
