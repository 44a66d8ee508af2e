// Package models holds the API types described by handler/openapi.yaml.
package models

// Error defines model for Error.
type Error struct {
	// Message Error message
	Message string `json:"message"`
}

// JobResponse defines model for JobResponse.
type JobResponse struct {
	Job Job `json:"job"`

	// Message user notice
	Message string `json:"message,omitempty"`
}

// PresetCreate defines model for PresetCreate.
type PresetCreate struct {
	// Name preset display name
	Name string `json:"name"`
}

// SeedResponse defines model for SeedResponse.
type SeedResponse struct {
	Seed int `json:"seed"`
}

// Selection defines model for Selection.
type Selection struct {
	Model  string `json:"model"`
	Preset string `json:"preset"`
}

// SelectionUpdate defines model for SelectionUpdate.
type SelectionUpdate struct {
	Model  *string `json:"model,omitempty"`
	Preset *string `json:"preset,omitempty"`
}

// Session defines model for Session.
type Session struct {
	// Expired unix seconds
	Expired   int64  `json:"expired"`
	SessionId string `json:"sessionId"`
}

// ShareResponse defines model for ShareResponse.
type ShareResponse struct {
	Message string `json:"message"`

	// Url signed url, absent when the image store can not share
	Url *string `json:"url,omitempty"`
}

// StateResponse defines model for StateResponse.
type StateResponse struct {
	CanStart    bool            `json:"canStart"`
	Dark        bool            `json:"dark"`
	Hint        string          `json:"hint"`
	Image       *UploadedImage  `json:"image,omitempty"`
	Job         Job             `json:"job"`
	Models      []Model         `json:"models"`
	Parameters  Parameters      `json:"parameters"`
	Presets     []Preset        `json:"presets"`
	Result      *ResultArtifact `json:"result,omitempty"`
	Selection   Selection       `json:"selection"`
	UploadLabel string          `json:"uploadLabel"`
}

// SystemInfo defines model for SystemInfo.
type SystemInfo struct {
	Accelerator   string `json:"accelerator"`
	CpuCount      int    `json:"cpuCount"`
	MemAvailable  uint64 `json:"memAvailable"`
	MemTotal      uint64 `json:"memTotal"`
	ModelStatus   string `json:"modelStatus"`
	ProcessRss    uint64 `json:"processRss"`
	RunnerMode    string `json:"runnerMode"`
	Sessions      int    `json:"sessions"`
	StorageDriver string `json:"storageDriver"`
}

// TaskRecord defines model for TaskRecord.
type TaskRecord struct {
	Cancel     int64   `json:"cancel"`
	CreateTime string  `json:"createTime"`
	Image      string  `json:"image"`
	Info       string  `json:"info"`
	Model      string  `json:"model"`
	ModifyTime string  `json:"modifyTime"`
	Params     string  `json:"params"`
	Preset     string  `json:"preset"`
	Progress   float64 `json:"progress"`
	Result     string  `json:"result"`
	SessionId  string  `json:"sessionId"`
	Status     string  `json:"status"`
	TaskId     string  `json:"taskId"`
}

// Theme defines model for Theme.
type Theme struct {
	Dark bool `json:"dark"`
}

// UpdateParametersJSONRequestBody defines body for UpdateParameters for application/json ContentType.
type UpdateParametersJSONRequestBody = Parameters

// CreatePresetJSONRequestBody defines body for CreatePreset for application/json ContentType.
type CreatePresetJSONRequestBody = PresetCreate

// UpdateSelectionJSONRequestBody defines body for UpdateSelection for application/json ContentType.
type UpdateSelectionJSONRequestBody = SelectionUpdate

// SetThemeJSONRequestBody defines body for SetTheme for application/json ContentType.
type SetThemeJSONRequestBody = Theme
