package config

import "time"

// env
const (
	ACCOUNT_ID        = "ACCOUNT_ID"
	ACCESS_KEY_ID     = "ACCESS_KEY_ID"
	ACCESS_KEY_SECRET = "ACCESS_KEY_SECRET"
	ACCESS_KEY_TOKEN  = "ACCESS_KEY_TOKEN"
	RUNNER_MODE       = "STYLE_RUNNER_MODE"
	SD_URL            = "STYLE_SD_URL"
	API_KEY_HASH      = "STYLE_API_KEY_HASH"
	SESSION_EXPIRE    = "STYLE_SESSION_EXPIRE"
)

// modes
const (
	MOCK   = "mock"
	REMOTE = "remote"
	MEMORY = "memory"
	OSS    = "oss"
)

const (
	// task status, same values as models.JobStatus
	TASK_IDLE      = "idle"
	TASK_RUNNING   = "running"
	TASK_CANCELLED = "cancelled"
	TASK_COMPLETED = "completed"
	TASK_FAILED    = "failed"

	CANCEL_INIT  = 0
	CANCEL_VALID = 1

	HTTPTIMEOUT = 60 * time.Second
)

// sd webui api
const (
	IMG2IMG   = "/sdapi/v1/img2img"
	PROGRESS  = "/sdapi/v1/progress"
	INTERRUPT = "/sdapi/v1/interrupt"
)

// ERROR message
const (
	INTERNALERROR = "an internal error"
	BADREQUEST    = "bad request body"
	NOTFOUND      = "not found"
	NOSESSION     = "session not found or expired"
	UNAUTHORIZED  = "invalid api key"
)

// user notices, single fixed locale
const (
	NoticeNoImage      = "Nejprve nahrajte obrázek s obsahem"
	NoticeCompleted    = "Přenos stylu byl úspěšně dokončen!"
	NoticeFailed       = "Zpracování selhalo. Zkuste to prosím znovu."
	NoticeCancelled    = "Zpracování bylo zrušeno"
	NoticeDownload     = "Stahování zahájeno"
	NoticeShare        = "Odkaz pro sdílení byl zkopírován do schránky"
	NoticeJobRunning   = "Zpracování již probíhá"
	NoticeNotImage     = "Podporovány jsou pouze obrázky"
	NoticeNoResult     = "Výsledek zatím není k dispozici"
	NoticePresetName   = "Zadejte název předvolby"
	UploadLimitLabel   = "JPG, PNG, WEBP do 10MB"
	ReadyLabel         = "Připraven ke zpracování • ~2min"
	UploadToContinue   = "Nahrajte obrázek pro pokračování"
	ModelReadyLabel    = "Model připraven"
	AccelerationLabel  = "GPU akcelerace"
	CustomPresetDesc   = "Custom saved preset"
	NoticeLevelInfo    = "info"
	NoticeLevelSuccess = "success"
	NoticeLevelError   = "error"
)

// function compute
const (
	TRIGGER_TYPE = "http"
	TRIGGER_NAME = "defaultTrigger"
	AUTH_TYPE    = "anonymous"
	HTTP_GET     = "GET"
	HTTP_POST    = "POST"
	HTTP_PUT     = "PUT"
)
