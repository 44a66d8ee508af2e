package module

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/datastore"
	"github.com/devsapp/serverless-style-transfer-api/pkg/metrics"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/runner"
	"github.com/devsapp/serverless-style-transfer-api/pkg/utils"
)

const SESSIONLENGTH = 64

var ErrTaskNotFound = errors.New("task not found")

// SessionManager owns every live session, sessions expire after
// config.SessionExpire seconds without a request
type SessionManager struct {
	cache  *sync.Map
	images ImageStore
	runner runner.Runner
	tasks  *datastore.TaskStore
	listen *ListenDbTask
	count  int64

	stop     chan struct{}
	stopOnce sync.Once
}

func NewSessionManager(images ImageStore, r runner.Runner, tasks *datastore.TaskStore) *SessionManager {
	return newSessionManager(images, r, tasks,
		NewListenDbTask(config.ConfigGlobal.ListenInterval, tasks.Datastore()), time.Minute)
}

func newSessionManager(images ImageStore, r runner.Runner, tasks *datastore.TaskStore,
	listen *ListenDbTask, sweepInterval time.Duration) *SessionManager {
	m := &SessionManager{
		cache:  new(sync.Map),
		images: images,
		runner: r,
		tasks:  tasks,
		listen: listen,
		stop:   make(chan struct{}),
	}
	go m.sweep(sweepInterval)
	return m
}

// Create a fresh session with the initial state
func (m *SessionManager) Create() *Session {
	s := newSession(utils.RandStr(SESSIONLENGTH), m.images, m.runner, m.tasks, m.listen)
	atomic.StoreInt64(&s.expired, utils.TimestampS()+config.ConfigGlobal.SessionExpire)
	m.cache.Store(s.Id, s)
	metrics.Sessions.Set(float64(atomic.AddInt64(&m.count, 1)))
	logrus.WithFields(logrus.Fields{"sessionId": s.Id}).Info("session created")
	return s
}

// Get a live session and renew its expiry
func (m *SessionManager) Get(id string) (*Session, bool) {
	if id == "" || len(id) != SESSIONLENGTH {
		return nil, false
	}
	val, ok := m.cache.Load(id)
	if !ok {
		return nil, false
	}
	s := val.(*Session)
	curTime := utils.TimestampS()
	if curTime > atomic.LoadInt64(&s.expired) {
		m.remove(s)
		return nil, false
	}
	// Renewal expired
	atomic.StoreInt64(&s.expired, curTime+config.ConfigGlobal.SessionExpire)
	return s, true
}

// Expired unix second the session ends at
func (m *SessionManager) Expired(s *Session) int64 {
	return atomic.LoadInt64(&s.expired)
}

// Remove end a session now
func (m *SessionManager) Remove(id string) bool {
	val, ok := m.cache.Load(id)
	if !ok {
		return false
	}
	m.remove(val.(*Session))
	return true
}

func (m *SessionManager) remove(s *Session) {
	if _, loaded := m.cache.LoadAndDelete(s.Id); !loaded {
		return
	}
	metrics.Sessions.Set(float64(atomic.AddInt64(&m.count, -1)))
	s.Close()
	logrus.WithFields(logrus.Fields{"sessionId": s.Id}).Info("session removed")
}

// Len live sessions
func (m *SessionManager) Len() int {
	return int(atomic.LoadInt64(&m.count))
}

// Task persisted record of a job
func (m *SessionManager) Task(taskId string) (*models.TaskRecord, error) {
	record, err := m.tasks.Get(taskId)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTaskNotFound
	}
	return record, nil
}

// CancelTask set the cancel flag of a task, the replica running it stops the job
func (m *SessionManager) CancelTask(taskId string) error {
	record, err := m.Task(taskId)
	if err != nil {
		return err
	}
	if record.Status != config.TASK_RUNNING {
		return nil
	}
	if err := m.tasks.PutCancel(taskId, config.CANCEL_VALID); err != nil {
		return err
	}
	// local fast path
	if val, ok := m.cache.Load(record.SessionId); ok {
		val.(*Session).cancelByTask(taskId)
	}
	return nil
}

func (m *SessionManager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
		}
		curTime := utils.TimestampS()
		m.cache.Range(func(_, value any) bool {
			s := value.(*Session)
			if curTime > atomic.LoadInt64(&s.expired) {
				m.remove(s)
			}
			return true
		})
	}
}

// Close end every session
func (m *SessionManager) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.listen.Close()
		m.cache.Range(func(_, value any) bool {
			m.remove(value.(*Session))
			return true
		})
	})
}
