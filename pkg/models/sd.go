package models

// Img2ImgRequest sd webui /sdapi/v1/img2img body, subset used by the remote runner
type Img2ImgRequest struct {
	InitImages        []string               `json:"init_images"`
	DenoisingStrength float64                `json:"denoising_strength"`
	Steps             int                    `json:"steps"`
	Seed              int                    `json:"seed"`
	CfgScale          float64                `json:"cfg_scale"`
	Styles            []string               `json:"styles,omitempty"`
	OverrideSettings  map[string]interface{} `json:"override_settings,omitempty"`
	AlwaysonScripts   map[string]interface{} `json:"alwayson_scripts,omitempty"`

	OverrideSettingsRestoreAfterwards bool `json:"override_settings_restore_afterwards"`
}

type Img2ImgResult struct {
	Images     []string               `json:"images"`
	Parameters map[string]interface{} `json:"parameters"`
	Info       string                 `json:"info"`
}

type ProgressResult struct {
	CurrentImage string  `json:"current_image"`
	EtaRelative  float64 `json:"eta_relative"`
	Progress     float64 `json:"progress"`
	State        State   `json:"state"`
}

type State struct {
	Interrupted   bool   `json:"interrupted"`
	Job           string `json:"job"`
	JobCount      int    `json:"job_count"`
	JobNo         int    `json:"job_no"`
	JobTimestamp  string `json:"job_timestamp"`
	SamplingStep  int    `json:"sampling_step"`
	SamplingSteps int    `json:"sampling_steps"`
	Skipped       bool   `json:"skipped"`
}

type ControlNet struct {
	Args []Args `json:"args"`
}
type Args struct {
	ControlMode   int     `json:"control_mode"`
	Enabled       bool    `json:"enabled"`
	GuidanceEnd   float64 `json:"guidance_end"`
	GuidanceStart float64 `json:"guidance_start"`
	Image         string  `json:"image"`
	Lowvram       bool    `json:"lowvram"`
	Model         string  `json:"model"`
	Module        string  `json:"module"`
	PixelPerfect  bool    `json:"pixel_perfect"`
	ProcessorRes  int     `json:"processor_res"`
	ResizeMode    int     `json:"resize_mode"`
	Weight        float64 `json:"weight"`
}
