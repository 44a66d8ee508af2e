package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/utils"
)

var errEmptyTaskId = errors.New("task id cannot be empty")

// TaskStore typed access to the task table
type TaskStore struct {
	ds Datastore
}

func NewTaskStore(ds Datastore) *TaskStore {
	return &TaskStore{ds: ds}
}

// NewTaskDataStore task table on the given backend
func NewTaskDataStore(dbType DatastoreType) (*TaskStore, error) {
	df := DatastoreFactory{}
	ds, err := df.NewTable(dbType, KTaskTableName)
	if err != nil {
		return nil, err
	}
	return NewTaskStore(ds), nil
}

// Close the underlying datastore.
func (t *TaskStore) Close() error {
	return t.ds.Close()
}

// Datastore raw table, used by the cancel listener
func (t *TaskStore) Datastore() Datastore {
	return t.ds
}

// Create a running task row
func (t *TaskStore) Create(taskId, sessionId, model, preset, image string, params models.Parameters) error {
	if taskId == "" {
		return errEmptyTaskId
	}
	paramsStr, err := json.Marshal(params)
	if err != nil {
		return err
	}
	now := fmt.Sprintf("%d", utils.TimestampS())
	return t.ds.Put(taskId, map[string]interface{}{
		KTaskSession:    sessionId,
		KTaskStatus:     config.TASK_RUNNING,
		KTaskProgress:   float64(0),
		KTaskModel:      model,
		KTaskPreset:     preset,
		KTaskParams:     string(paramsStr),
		KTaskImage:      image,
		KTaskCancel:     int64(config.CANCEL_INIT),
		KTaskCreateTime: now,
		KTaskModifyTime: now,
	})
}

func (t *TaskStore) Update(taskId string, data map[string]interface{}) error {
	if taskId == "" {
		return errEmptyTaskId
	}
	data[KTaskModifyTime] = fmt.Sprintf("%d", utils.TimestampS())
	return t.ds.Update(taskId, data)
}

func (t *TaskStore) PutProgress(taskId string, progress float64) error {
	return t.Update(taskId, map[string]interface{}{
		KTaskProgress: progress,
	})
}

// Finish terminal status with optional result key and info
func (t *TaskStore) Finish(taskId, status string, progress float64, result, info string) error {
	return t.Update(taskId, map[string]interface{}{
		KTaskStatus:   status,
		KTaskProgress: progress,
		KTaskResult:   result,
		KTaskInfo:     info,
	})
}

func (t *TaskStore) PutCancel(taskId string, cancel int) error {
	return t.Update(taskId, map[string]interface{}{
		KTaskCancel: int64(cancel),
	})
}

// GetCancel -1 for a non-existent task
func (t *TaskStore) GetCancel(taskId string) (int64, error) {
	result, err := t.ds.Get(taskId, []string{KTaskCancel})
	if err != nil {
		return -1, err
	}
	val, ok := result[KTaskCancel]
	if !ok {
		return -1, nil
	}
	return toInt64(val), nil
}

// Get task record, nil when absent
func (t *TaskStore) Get(taskId string) (*models.TaskRecord, error) {
	data, err := t.ds.Get(taskId, TaskColumns)
	if err != nil || data == nil {
		return nil, err
	}
	return &models.TaskRecord{
		TaskId:     taskId,
		SessionId:  toString(data[KTaskSession]),
		Status:     toString(data[KTaskStatus]),
		Progress:   toFloat64(data[KTaskProgress]),
		Model:      toString(data[KTaskModel]),
		Preset:     toString(data[KTaskPreset]),
		Params:     toString(data[KTaskParams]),
		Image:      toString(data[KTaskImage]),
		Result:     toString(data[KTaskResult]),
		Info:       toString(data[KTaskInfo]),
		Cancel:     toInt64(data[KTaskCancel]),
		CreateTime: toString(data[KTaskCreateTime]),
		ModifyTime: toString(data[KTaskModifyTime]),
	}, nil
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
