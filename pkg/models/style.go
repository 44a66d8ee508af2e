package models

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// parameter slider bounds
const (
	MinStrength            = 0.0
	MaxStrength            = 1.0
	MinSteps               = 1
	MaxSteps               = 50
	MinSeed                = 0
	MaxSeed                = 999999
	MinGuidanceScale       = 1.0
	MaxGuidanceScale       = 20.0
	MinAdaptorConditioning = 0.5
	MaxAdaptorConditioning = 2.0
)

const (
	DefaultModelID  = "neural-style"
	DefaultPresetID = "balanced"
)

var ErrInvalidParameters = errors.New("parameter out of range")

// Parameters generation tuning, plain values bound to sliders
type Parameters struct {
	Strength            float64 `json:"strength"`
	Steps               int     `json:"steps"`
	Seed                int     `json:"seed"`
	GuidanceScale       float64 `json:"guidanceScale"`
	AdaptorConditioning float64 `json:"adaptorConditioning"`
	UseRandomSeed       bool    `json:"useRandomSeed"`
}

func DefaultParameters() Parameters {
	return Parameters{
		Strength:            0.75,
		Steps:               20,
		Seed:                42,
		GuidanceScale:       7.5,
		AdaptorConditioning: 1.0,
		UseRandomSeed:       true,
	}
}

// Validate slider bounds only
func (p Parameters) Validate() error {
	switch {
	case p.Strength < MinStrength || p.Strength > MaxStrength:
		return fmt.Errorf("%w: strength %v not in [%v,%v]", ErrInvalidParameters, p.Strength, MinStrength, MaxStrength)
	case p.Steps < MinSteps || p.Steps > MaxSteps:
		return fmt.Errorf("%w: steps %d not in [%d,%d]", ErrInvalidParameters, p.Steps, MinSteps, MaxSteps)
	case p.GuidanceScale < MinGuidanceScale || p.GuidanceScale > MaxGuidanceScale:
		return fmt.Errorf("%w: guidanceScale %v not in [%v,%v]", ErrInvalidParameters, p.GuidanceScale,
			MinGuidanceScale, MaxGuidanceScale)
	case p.AdaptorConditioning < MinAdaptorConditioning || p.AdaptorConditioning > MaxAdaptorConditioning:
		return fmt.Errorf("%w: adaptorConditioning %v not in [%v,%v]", ErrInvalidParameters, p.AdaptorConditioning,
			MinAdaptorConditioning, MaxAdaptorConditioning)
	}
	return ValidateSeed(p.Seed)
}

func ValidateSeed(seed int) error {
	if seed < MinSeed || seed > MaxSeed {
		return fmt.Errorf("%w: seed %d not in [%d,%d]", ErrInvalidParameters, seed, MinSeed, MaxSeed)
	}
	return nil
}

// RandomSeed floor(random * 999999)
func RandomSeed(r *rand.Rand) int {
	return int(r.Float64() * MaxSeed)
}

// Model selectable processing model
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Models fixed model enum
var Models = []Model{
	{ID: "neural-style", Name: "Neural Style Transfer", Description: "Klasický umělecký přenos stylu"},
	{ID: "stable-diffusion", Name: "Stable Diffusion", Description: "Moderní AI-powered stylování"},
	{ID: "cyclegan", Name: "CycleGAN", Description: "Model adaptace domén"},
	{ID: "wavenet-style", Name: "WaveNet Style", Description: "Experimentální texturový model"},
}

func FindModel(id string) (Model, bool) {
	for _, m := range Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Preset named style configuration, an inert identifier
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Custom      bool   `json:"custom"`
}

// BuiltinPresets immutable, always listed first
var BuiltinPresets = []Preset{
	{ID: "balanced", Name: "Vyvážené", Description: "Dobrá rovnováha stylu a obsahu"},
	{ID: "artistic", Name: "Umělecké", Description: "Silná umělecká interpretace"},
	{ID: "photorealistic", Name: "Fotorealistické", Description: "Zachovává fotorealismus"},
	{ID: "experimental", Name: "Experimentální", Description: "Experimentální efekty"},
}

func IsBuiltinPreset(id string) bool {
	for _, p := range BuiltinPresets {
		if p.ID == id {
			return true
		}
	}
	return false
}

// CustomPresetID id derived from creation time
func CustomPresetID(t time.Time) string {
	return fmt.Sprintf("custom-%d", t.UnixMilli())
}

// UploadedImage input image handle, Key addresses the image store
type UploadedImage struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ResultArtifact displayable output image
type ResultArtifact struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	JobID       string `json:"jobId"`
}

type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobRunning   JobStatus = "running"
	JobCancelled JobStatus = "cancelled"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal completed, cancelled or failed
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobCancelled || s == JobFailed
}

// Active only running blocks a new start, terminal states are idle-equivalent
func (s JobStatus) Active() bool {
	return s == JobRunning
}

// Job processing attempt, at most one per session
type Job struct {
	ID         string     `json:"id,omitempty"`
	Status     JobStatus  `json:"status"`
	Progress   float64    `json:"progress"`
	Message    string     `json:"message,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}
