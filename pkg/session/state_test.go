package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
)

var now = time.Unix(1700000000, 0)

func withImage(t *testing.T) State {
	s, err := Reduce(NewState(), UploadImage{Image: models.UploadedImage{Key: "img-1", Name: "a.png", Size: 10}, At: now})
	require.NoError(t, err)
	return s
}

func TestInitialState(t *testing.T) {
	s := NewState()
	assert.False(t, s.Dark)
	assert.Nil(t, s.Image)
	assert.Equal(t, models.JobIdle, s.Job.Status)
	assert.Equal(t, models.DefaultModelID, s.Model)
	assert.Equal(t, models.DefaultPresetID, s.Preset)
	assert.False(t, s.CanStart())
	assert.Len(t, s.Presets(), 4)
}

func TestTheme(t *testing.T) {
	s, err := Reduce(NewState(), ToggleTheme{})
	require.NoError(t, err)
	assert.True(t, s.Dark)
	s, _ = Reduce(s, ToggleTheme{})
	assert.False(t, s.Dark)
	s, _ = Reduce(s, SetTheme{Dark: true})
	assert.True(t, s.Dark)
}

func TestStartWithoutImage(t *testing.T) {
	s := NewState()
	next, err := Reduce(s, StartJob{ID: "job-1", At: now})
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, models.JobIdle, next.Job.Status)
	assert.Equal(t, s, next)
}

func TestStartAndSecondStart(t *testing.T) {
	s := withImage(t)
	assert.True(t, s.CanStart())
	s, err := Reduce(s, StartJob{ID: "job-1", At: now})
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, s.Job.Status)
	assert.Equal(t, float64(0), s.Job.Progress)
	assert.False(t, s.CanStart())

	_, err = Reduce(s, StartJob{ID: "job-2", At: now})
	assert.ErrorIs(t, err, ErrJobRunning)
}

func TestProgressMonotonicAndClamped(t *testing.T) {
	s := withImage(t)
	s, _ = Reduce(s, StartJob{ID: "job-1", At: now})
	last := 0.0
	for _, p := range []float64{5, 3, 40, 39, 94, 120, 60} {
		s, _ = Reduce(s, ReportProgress{JobID: "job-1", Progress: p})
		assert.GreaterOrEqual(t, s.Job.Progress, last)
		assert.LessOrEqual(t, s.Job.Progress, 95.0)
		last = s.Job.Progress
	}
	assert.Equal(t, 95.0, s.Job.Progress)
}

func TestCompleteJob(t *testing.T) {
	s := withImage(t)
	s, _ = Reduce(s, StartJob{ID: "job-1", At: now})
	s, err := Reduce(s, CompleteJob{JobID: "job-1", Result: models.ResultArtifact{Key: "img-1", JobID: "job-1"}, At: now})
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, s.Job.Status)
	assert.Equal(t, 100.0, s.Job.Progress)
	require.NotNil(t, s.Result)
	assert.Equal(t, s.Image.Key, s.Result.Key)
	// terminal is idle-equivalent
	assert.True(t, s.CanStart())
}

func TestStaleJobEventsIgnored(t *testing.T) {
	s := withImage(t)
	s, _ = Reduce(s, StartJob{ID: "job-1", At: now})
	s, _ = Reduce(s, CancelJob{At: now})
	s, _ = Reduce(s, StartJob{ID: "job-2", At: now})

	next, err := Reduce(s, ReportProgress{JobID: "job-1", Progress: 50})
	require.NoError(t, err)
	assert.Equal(t, 0.0, next.Job.Progress)

	next, _ = Reduce(next, CompleteJob{JobID: "job-1", Result: models.ResultArtifact{Key: "x"}, At: now})
	assert.Equal(t, models.JobRunning, next.Job.Status)
	assert.Nil(t, next.Result)

	next, _ = Reduce(next, FailJob{JobID: "job-1", Message: "boom", At: now})
	assert.Equal(t, models.JobRunning, next.Job.Status)
}

func TestCancelJob(t *testing.T) {
	s := withImage(t)
	_, err := Reduce(s, CancelJob{At: now})
	assert.ErrorIs(t, err, ErrJobNotRunning)

	s, _ = Reduce(s, StartJob{ID: "job-1", At: now})
	s, _ = Reduce(s, ReportProgress{JobID: "job-1", Progress: 30})
	s, err = Reduce(s, CancelJob{At: now})
	require.NoError(t, err)
	assert.Equal(t, models.JobCancelled, s.Job.Status)
	assert.Equal(t, 0.0, s.Job.Progress)
	assert.Nil(t, s.Result)

	s, _ = Reduce(s, CompleteJob{JobID: "job-1", Result: models.ResultArtifact{Key: "img-1"}, At: now})
	assert.Equal(t, models.JobCancelled, s.Job.Status)
	assert.Nil(t, s.Result)
	assert.True(t, s.CanStart())
}

func TestFailJob(t *testing.T) {
	s := withImage(t)
	s, _ = Reduce(s, StartJob{ID: "job-1", At: now})
	s, _ = Reduce(s, ReportProgress{JobID: "job-1", Progress: 30})
	s, _ = Reduce(s, FailJob{JobID: "job-1", Message: "boom", At: now})
	assert.Equal(t, models.JobFailed, s.Job.Status)
	assert.Equal(t, 0.0, s.Job.Progress)
	assert.Equal(t, "boom", s.Job.Message)
	assert.Nil(t, s.Result)
}

func TestRemoveImageInvalidatesJob(t *testing.T) {
	s := withImage(t)
	s, _ = Reduce(s, StartJob{ID: "job-1", At: now})
	s, err := Reduce(s, RemoveImage{At: now})
	require.NoError(t, err)
	assert.Nil(t, s.Image)
	assert.Equal(t, models.JobCancelled, s.Job.Status)
	assert.False(t, s.CanStart())

	s = withImage(t)
	s, _ = Reduce(s, StartJob{ID: "job-1", At: now})
	s, _ = Reduce(s, CompleteJob{JobID: "job-1", Result: models.ResultArtifact{Key: "img-1"}, At: now})
	s, _ = Reduce(s, RemoveImage{At: now})
	assert.Nil(t, s.Result)
	assert.Equal(t, models.JobCompleted, s.Job.Status)
}

func TestUploadReplacesImage(t *testing.T) {
	s := withImage(t)
	s, _ = Reduce(s, StartJob{ID: "job-1", At: now})
	s, err := Reduce(s, UploadImage{Image: models.UploadedImage{Key: "img-2", Name: "b.png"}, At: now})
	require.NoError(t, err)
	assert.Equal(t, "img-2", s.Image.Key)
	assert.Equal(t, models.JobCancelled, s.Job.Status)
}

func TestParameters(t *testing.T) {
	s := NewState()
	p := models.DefaultParameters()
	p.Steps = 49
	s, err := Reduce(s, SetParameters{Params: p})
	require.NoError(t, err)
	assert.Equal(t, 49, s.Params.Steps)

	p.Steps = 51
	next, err := Reduce(s, SetParameters{Params: p})
	assert.True(t, errors.Is(err, models.ErrInvalidParameters))
	assert.Equal(t, 49, next.Params.Steps)

	s, err = Reduce(s, SetSeed{Seed: 123})
	require.NoError(t, err)
	assert.Equal(t, 123, s.Params.Seed)
	_, err = Reduce(s, SetSeed{Seed: -1})
	assert.Error(t, err)
}

func TestSelectModel(t *testing.T) {
	s, err := Reduce(NewState(), SelectModel{ID: "cyclegan"})
	require.NoError(t, err)
	assert.Equal(t, "cyclegan", s.Model)
	_, err = Reduce(s, SelectModel{ID: "dall-e"})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestSelectBothOrNeither(t *testing.T) {
	model, preset, missing := "cyclegan", "artistic", "custom-1"
	s, err := Reduce(NewState(), Select{Model: &model, Preset: &preset})
	require.NoError(t, err)
	assert.Equal(t, "cyclegan", s.Model)
	assert.Equal(t, "artistic", s.Preset)

	other := "wavenet-style"
	next, err := Reduce(s, Select{Model: &other, Preset: &missing})
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, "cyclegan", next.Model)
	assert.Equal(t, "artistic", next.Preset)

	next, err = Reduce(s, Select{Preset: &preset})
	require.NoError(t, err)
	assert.Equal(t, "cyclegan", next.Model)
}

func TestSaveWarmGlowPreset(t *testing.T) {
	s := NewState()
	before := len(s.Presets())
	s, err := Reduce(s, SavePreset{Preset: models.Preset{ID: "custom-1", Name: "  Warm Glow "}})
	require.NoError(t, err)
	presets := s.Presets()
	assert.Len(t, presets, before+1)
	last := presets[len(presets)-1]
	assert.Equal(t, "Warm Glow", last.Name)
	assert.True(t, last.Custom)
	assert.Equal(t, "custom-1", s.Preset)

	ids := map[string]bool{}
	for _, p := range presets {
		assert.False(t, ids[p.ID])
		ids[p.ID] = true
	}

	_, err = Reduce(s, SavePreset{Preset: models.Preset{ID: "custom-1", Name: "again"}})
	assert.ErrorIs(t, err, ErrDuplicatePreset)
	_, err = Reduce(s, SavePreset{Preset: models.Preset{ID: "custom-2", Name: "   "}})
	assert.ErrorIs(t, err, ErrEmptyPresetName)
}

func TestDeletePreset(t *testing.T) {
	s := NewState()
	s, _ = Reduce(s, SavePreset{Preset: models.Preset{ID: "custom-1", Name: "Warm Glow"}})
	s, _ = Reduce(s, SavePreset{Preset: models.Preset{ID: "custom-2", Name: "Cold"}})
	s, _ = Reduce(s, SelectPreset{ID: "custom-1"})

	s, err := Reduce(s, DeletePreset{ID: "custom-1"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPresetID, s.Preset)
	assert.Len(t, s.Custom, 1)
	assert.Equal(t, "custom-2", s.Custom[0].ID)

	_, err = Reduce(s, DeletePreset{ID: "balanced"})
	assert.ErrorIs(t, err, ErrBuiltinPreset)
	_, err = Reduce(s, DeletePreset{ID: "custom-9"})
	assert.ErrorIs(t, err, ErrUnknownPreset)
	_, err = Reduce(s, SelectPreset{ID: "custom-1"})
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := NewState()
	s, _ = Reduce(s, SavePreset{Preset: models.Preset{ID: "custom-1", Name: "A"}})
	before := s
	_, _ = Reduce(s, SavePreset{Preset: models.Preset{ID: "custom-2", Name: "B"}})
	_, _ = Reduce(s, DeletePreset{ID: "custom-1"})
	assert.Equal(t, before, s)
	assert.Len(t, s.Custom, 1)
}
