package datastore

// tasks table
const (
	KTaskTableName    = "tasks"
	KTaskIdColumnName = "TASK_ID"
	KTaskSession      = "TASK_SESSION"
	KTaskStatus       = "TASK_STATUS"
	KTaskProgress     = "TASK_PROGRESS"
	KTaskModel        = "TASK_MODEL"
	KTaskPreset       = "TASK_PRESET"
	KTaskParams       = "TASK_PARAMS"
	KTaskImage        = "TASK_IMAGE"
	KTaskResult       = "TASK_RESULT"
	KTaskInfo         = "TASK_INFO"
	KTaskCancel       = "TASK_CANCEL"
	KTaskCreateTime   = "TASK_CREATE_TIME"
	KTaskModifyTime   = "TASK_MODIFY_TIME"
)

// TaskColumns every task column except the primary key
var TaskColumns = []string{
	KTaskSession, KTaskStatus, KTaskProgress, KTaskModel, KTaskPreset, KTaskParams,
	KTaskImage, KTaskResult, KTaskInfo, KTaskCancel, KTaskCreateTime, KTaskModifyTime,
}

func taskColumnConfig() map[string]string {
	return map[string]string{
		KTaskSession:    "TEXT",
		KTaskStatus:     "TEXT",
		KTaskProgress:   "FLOAT",
		KTaskModel:      "TEXT",
		KTaskPreset:     "TEXT",
		KTaskParams:     "TEXT",
		KTaskImage:      "TEXT",
		KTaskResult:     "TEXT",
		KTaskInfo:       "TEXT",
		KTaskCancel:     "INT",
		KTaskCreateTime: "TEXT",
		KTaskModifyTime: "TEXT",
	}
}
