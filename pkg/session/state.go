package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
)

var (
	ErrNoImage         = errors.New("no image uploaded")
	ErrJobRunning      = errors.New("job already running")
	ErrJobNotRunning   = errors.New("no running job")
	ErrUnknownModel    = errors.New("unknown model")
	ErrUnknownPreset   = errors.New("unknown preset")
	ErrBuiltinPreset   = errors.New("builtin preset can not be deleted")
	ErrEmptyPresetName = errors.New("preset name empty")
	ErrDuplicatePreset = errors.New("preset id exists")
	ErrUnknownAction   = errors.New("unknown action")
)

// State whole per-session ui state, treat as immutable
type State struct {
	Dark   bool
	Image  *models.UploadedImage
	Result *models.ResultArtifact
	Job    models.Job
	Params models.Parameters
	Model  string
	Preset string
	Custom []models.Preset
}

func NewState() State {
	return State{
		Job:    models.Job{Status: models.JobIdle},
		Params: models.DefaultParameters(),
		Model:  models.DefaultModelID,
		Preset: models.DefaultPresetID,
	}
}

// CanStart start control enabled
func (s State) CanStart() bool {
	return s.Image != nil && !s.Job.Status.Active()
}

// Presets builtin first, then custom in insertion order
func (s State) Presets() []models.Preset {
	ret := make([]models.Preset, 0, len(models.BuiltinPresets)+len(s.Custom))
	ret = append(ret, models.BuiltinPresets...)
	return append(ret, s.Custom...)
}

func (s State) hasPreset(id string) bool {
	if models.IsBuiltinPreset(id) {
		return true
	}
	return s.customIndex(id) >= 0
}

func (s State) customIndex(id string) int {
	for i, p := range s.Custom {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Running job id when a job is in flight
func (s State) Running(jobID string) bool {
	return s.Job.Status.Active() && s.Job.ID == jobID
}

type Action interface {
	apply(State) (State, error)
}

type ToggleTheme struct{}

type SetTheme struct{ Dark bool }

type SetParameters struct{ Params models.Parameters }

type SetSeed struct{ Seed int }

type UploadImage struct {
	Image models.UploadedImage
	At    time.Time
}

type RemoveImage struct{ At time.Time }

type SelectModel struct{ ID string }

type SelectPreset struct{ ID string }

// Select applies a model and a preset together, nil fields stay unchanged
type Select struct {
	Model  *string
	Preset *string
}

type SavePreset struct{ Preset models.Preset }

type DeletePreset struct{ ID string }

type StartJob struct {
	ID string
	At time.Time
}

type ReportProgress struct {
	JobID    string
	Progress float64
}

type CompleteJob struct {
	JobID  string
	Result models.ResultArtifact
	At     time.Time
}

type FailJob struct {
	JobID   string
	Message string
	At      time.Time
}

type CancelJob struct{ At time.Time }

// Reduce the only way a State changes. On error the input state is returned.
func Reduce(s State, a Action) (State, error) {
	if a == nil {
		return s, ErrUnknownAction
	}
	next, err := a.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

func (ToggleTheme) apply(s State) (State, error) {
	s.Dark = !s.Dark
	return s, nil
}

func (a SetTheme) apply(s State) (State, error) {
	s.Dark = a.Dark
	return s, nil
}

func (a SetParameters) apply(s State) (State, error) {
	if err := a.Params.Validate(); err != nil {
		return s, err
	}
	s.Params = a.Params
	return s, nil
}

func (a SetSeed) apply(s State) (State, error) {
	if err := models.ValidateSeed(a.Seed); err != nil {
		return s, err
	}
	s.Params.Seed = a.Seed
	return s, nil
}

func (a UploadImage) apply(s State) (State, error) {
	img := a.Image
	s.Image = &img
	s.Result = nil
	s = cancelled(s, a.At)
	return s, nil
}

func (a RemoveImage) apply(s State) (State, error) {
	s.Image = nil
	s.Result = nil
	s = cancelled(s, a.At)
	return s, nil
}

func (a SelectModel) apply(s State) (State, error) {
	if _, ok := models.FindModel(a.ID); !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownModel, a.ID)
	}
	s.Model = a.ID
	return s, nil
}

func (a SelectPreset) apply(s State) (State, error) {
	if !s.hasPreset(a.ID) {
		return s, fmt.Errorf("%w: %s", ErrUnknownPreset, a.ID)
	}
	s.Preset = a.ID
	return s, nil
}

func (a Select) apply(s State) (State, error) {
	var err error
	if a.Model != nil {
		if s, err = (SelectModel{ID: *a.Model}).apply(s); err != nil {
			return s, err
		}
	}
	if a.Preset != nil {
		if s, err = (SelectPreset{ID: *a.Preset}).apply(s); err != nil {
			return s, err
		}
	}
	return s, nil
}

func (a SavePreset) apply(s State) (State, error) {
	p := a.Preset
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return s, ErrEmptyPresetName
	}
	if p.ID == "" || s.hasPreset(p.ID) {
		return s, fmt.Errorf("%w: %s", ErrDuplicatePreset, p.ID)
	}
	p.Custom = true
	custom := make([]models.Preset, len(s.Custom), len(s.Custom)+1)
	copy(custom, s.Custom)
	s.Custom = append(custom, p)
	s.Preset = p.ID
	return s, nil
}

func (a DeletePreset) apply(s State) (State, error) {
	if models.IsBuiltinPreset(a.ID) {
		return s, fmt.Errorf("%w: %s", ErrBuiltinPreset, a.ID)
	}
	idx := s.customIndex(a.ID)
	if idx < 0 {
		return s, fmt.Errorf("%w: %s", ErrUnknownPreset, a.ID)
	}
	custom := make([]models.Preset, 0, len(s.Custom)-1)
	custom = append(custom, s.Custom[:idx]...)
	s.Custom = append(custom, s.Custom[idx+1:]...)
	if s.Preset == a.ID {
		s.Preset = models.DefaultPresetID
	}
	return s, nil
}

func (a StartJob) apply(s State) (State, error) {
	if s.Image == nil {
		return s, ErrNoImage
	}
	if s.Job.Status.Active() {
		return s, ErrJobRunning
	}
	at := a.At
	s.Job = models.Job{ID: a.ID, Status: models.JobRunning, StartedAt: &at}
	s.Result = nil
	return s, nil
}

func (a ReportProgress) apply(s State) (State, error) {
	if !s.Running(a.JobID) {
		return s, nil
	}
	p := a.Progress
	if p < s.Job.Progress {
		p = s.Job.Progress
	}
	s.Job.Progress = clamp(p, 0, 95)
	return s, nil
}

func (a CompleteJob) apply(s State) (State, error) {
	if !s.Running(a.JobID) {
		return s, nil
	}
	at := a.At
	res := a.Result
	s.Job.Status = models.JobCompleted
	s.Job.Progress = 100
	s.Job.FinishedAt = &at
	s.Result = &res
	return s, nil
}

func (a FailJob) apply(s State) (State, error) {
	if !s.Running(a.JobID) {
		return s, nil
	}
	at := a.At
	s.Job.Status = models.JobFailed
	s.Job.Progress = 0
	s.Job.Message = a.Message
	s.Job.FinishedAt = &at
	s.Result = nil
	return s, nil
}

func (a CancelJob) apply(s State) (State, error) {
	if !s.Job.Status.Active() {
		return s, ErrJobNotRunning
	}
	return cancelled(s, a.At), nil
}

// cancelled running job becomes cancelled, others untouched
func cancelled(s State, at time.Time) State {
	if !s.Job.Status.Active() {
		return s
	}
	s.Job.Status = models.JobCancelled
	s.Job.Progress = 0
	s.Job.FinishedAt = &at
	s.Result = nil
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
