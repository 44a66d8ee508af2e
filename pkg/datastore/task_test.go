package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/utils"
)

var taskStore *TaskStore

func TestTaskSqlite(t *testing.T) {
	assert.Nil(t, config.InitConfig(""))
	var err error
	taskStore, err = NewTaskDataStore(SQLite)
	assert.Nil(t, err)
	defer taskStore.Close()
	t.Run("task", task)
	t.Run("cancel", cancel)
	t.Run("progress", progress)
}

func TestUnknownTable(t *testing.T) {
	df := DatastoreFactory{}
	_, err := df.NewTable(SQLite, "users")
	assert.NotNil(t, err)
	_, err = df.NewTable("mysql", KTaskTableName)
	assert.NotNil(t, err)
}

func task(t *testing.T) {
	taskId := utils.RandStr(10)
	err := taskStore.Create(taskId, "session-1", "neural-style", "balanced", "img-1", models.DefaultParameters())
	assert.Nil(t, err)
	err = taskStore.Finish(taskId, config.TASK_COMPLETED, 100, "img-1", "")
	assert.Nil(t, err)

	record, err := taskStore.Get(taskId)
	assert.Nil(t, err)
	assert.Equal(t, taskId, record.TaskId)
	assert.Equal(t, "session-1", record.SessionId)
	assert.Equal(t, config.TASK_COMPLETED, record.Status)
	assert.Equal(t, 100.0, record.Progress)
	assert.Equal(t, "img-1", record.Result)
	assert.Contains(t, record.Params, "\"steps\":20")

	record, err = taskStore.Get("absent")
	assert.Nil(t, err)
	assert.Nil(t, record)

	assert.Equal(t, errEmptyTaskId, taskStore.Update("", map[string]interface{}{}))
}

func cancel(t *testing.T) {
	taskId := utils.RandStr(10)
	cancel, err := taskStore.GetCancel(taskId)
	assert.Nil(t, err)
	assert.Equal(t, int64(-1), cancel)

	err = taskStore.Create(taskId, "session-1", "cyclegan", "balanced", "img-1", models.DefaultParameters())
	assert.Nil(t, err)
	cancel, err = taskStore.GetCancel(taskId)
	assert.Nil(t, err)
	assert.Equal(t, int64(config.CANCEL_INIT), cancel)

	err = taskStore.PutCancel(taskId, config.CANCEL_VALID)
	assert.Nil(t, err)
	cancel, err = taskStore.GetCancel(taskId)
	assert.Nil(t, err)
	assert.Equal(t, int64(config.CANCEL_VALID), cancel)

	assert.ErrorIs(t, taskStore.PutCancel("absent", config.CANCEL_VALID), ErrKeyNotFound)
}

func progress(t *testing.T) {
	taskId := utils.RandStr(10)
	err := taskStore.Create(taskId, "session-1", "cyclegan", "balanced", "img-1", models.DefaultParameters())
	assert.Nil(t, err)
	err = taskStore.PutProgress(taskId, 42.5)
	assert.Nil(t, err)
	record, err := taskStore.Get(taskId)
	assert.Nil(t, err)
	assert.Equal(t, 42.5, record.Progress)
	assert.Equal(t, config.TASK_RUNNING, record.Status)

	all, err := taskStore.Datastore().ListAll([]string{KTaskStatus})
	assert.Nil(t, err)
	assert.Contains(t, all, taskId)
}
