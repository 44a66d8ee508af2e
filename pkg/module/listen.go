package module

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/datastore"
)

type CallBack func(taskId string)

type ListenType int32

const (
	CancelListen ListenType = iota
)

type DbTaskItem struct {
	listenType ListenType
	callBack   CallBack
}

// ListenDbTask listen db value change and call callback func
// for example: task cancel flag set by another replica
type ListenDbTask struct {
	taskStore datastore.Datastore
	interval  time.Duration
	tasks     *sync.Map
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewListenDbTask(intervalSecond int32, taskStore datastore.Datastore) *ListenDbTask {
	return newListenDbTask(time.Duration(intervalSecond)*time.Second, taskStore)
}

func newListenDbTask(interval time.Duration, taskStore datastore.Datastore) *ListenDbTask {
	if interval <= 0 {
		interval = time.Second
	}
	listenTask := &ListenDbTask{
		taskStore: taskStore,
		interval:  interval,
		tasks:     new(sync.Map),
		stop:      make(chan struct{}),
	}
	go listenTask.init()
	return listenTask
}

// init listen
func (l *ListenDbTask) init() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		l.tasks.Range(func(key, value any) bool {
			taskId := key.(string)
			taskItem := value.(*DbTaskItem)
			switch taskItem.listenType {
			case CancelListen:
				l.cancelTask(taskId, taskItem)
			}
			return true
		})
	}
}

// listen task cancel
func (l *ListenDbTask) cancelTask(taskId string, item *DbTaskItem) {
	ret, err := l.taskStore.Get(taskId, []string{datastore.KTaskCancel, datastore.KTaskStatus})
	if err != nil || ret == nil {
		if err != nil {
			logrus.WithFields(logrus.Fields{"taskId": taskId}).Warnf("listen task err=%s", err.Error())
		}
		l.tasks.Delete(taskId)
		return
	}
	// check task finish delete db listen task
	if status, _ := ret[datastore.KTaskStatus].(string); status != config.TASK_RUNNING {
		l.tasks.Delete(taskId)
		return
	}
	// cancel val == 1
	if cancelVal, _ := ret[datastore.KTaskCancel].(int64); cancelVal == int64(config.CANCEL_VALID) {
		logrus.WithFields(logrus.Fields{"taskId": taskId}).Info("listen cancel signal")
		l.tasks.Delete(taskId)
		item.callBack(taskId)
	}
}

// AddTask add listen task
func (l *ListenDbTask) AddTask(key string, listenType ListenType, callBack CallBack) {
	l.tasks.Store(key, &DbTaskItem{
		listenType: listenType,
		callBack:   callBack,
	})
}

// RemoveTask stop listening key
func (l *ListenDbTask) RemoveTask(key string) {
	l.tasks.Delete(key)
}

// Close close listen
func (l *ListenDbTask) Close() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}
