package log

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// send log
const (
	defaultCacheCount = 64
	defaultCacheSize  = 16 * 1024 // 16KB
	logPath           = "collect/log"
	flowSize          = 8192
)

// Log one shipped entry
type Log struct {
	AccountID string `json:"accountID"`
	Level     string `json:"level"`
	Ts        int64  `json:"ts"`
	Msg       string `json:"msg"`
	SessionID string `json:"sessionID,omitempty"`
	JobID     string `json:"jobID,omitempty"`
	Source    string `json:"source"`
}

func (l *Log) Size() int {
	return len(l.Msg)
}

// RemoteHook logrus hook batching entries to the remote log service,
// a batch is posted at 64 entries or 16KB of messages
type RemoteHook struct {
	monitor   *Monitor
	accountId string
	source    string
	levels    []logrus.Level
	logFlow   chan *Log
	cacheLog  []*Log
	closeLog  chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

func NewRemoteHook(monitor *Monitor, accountId, source string) *RemoteHook {
	hook := &RemoteHook{
		monitor:   monitor,
		accountId: accountId,
		source:    source,
		levels:    logrus.AllLevels,
		logFlow:   make(chan *Log, flowSize),
		cacheLog:  make([]*Log, 0, defaultCacheCount),
		closeLog:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	go hook.consumeLog()
	return hook
}

func (h *RemoteHook) Levels() []logrus.Level {
	return h.levels
}

// Fire never blocks the caller, entries are dropped when the flow is full
func (h *RemoteHook) Fire(entry *logrus.Entry) error {
	logObj := &Log{
		AccountID: h.accountId,
		Level:     entry.Level.String(),
		Ts:        entry.Time.UnixMilli(),
		Msg:       entry.Message,
		SessionID: fieldString(entry.Data, "sessionId"),
		JobID:     fieldString(entry.Data, "jobId"),
		Source:    h.source,
	}
	select {
	case h.logFlow <- logObj:
	default:
	}
	return nil
}

func fieldString(data logrus.Fields, key string) string {
	if v, ok := data[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

func (h *RemoteHook) consumeLog() {
	defer close(h.done)
	cacheSize := 0
	add := func(logObj *Log) {
		if cacheSize >= defaultCacheSize || len(h.cacheLog) >= defaultCacheCount {
			h.flush()
			cacheSize = 0
		}
		h.cacheLog = append(h.cacheLog, logObj)
		cacheSize += logObj.Size()
	}
	for {
		select {
		case logObj := <-h.logFlow:
			add(logObj)
		case <-h.closeLog:
			for {
				select {
				case logObj := <-h.logFlow:
					add(logObj)
				default:
					h.flush()
					return
				}
			}
		}
	}
}

// flush post the batch; errors go to stderr, logging them would re-enter the hook
func (h *RemoteHook) flush() {
	if len(h.cacheLog) == 0 {
		return
	}
	body, err := json.Marshal(h.cacheLog)
	h.cacheLog = h.cacheLog[:0]
	if err != nil {
		return
	}
	if err := h.monitor.Post(body, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "send log err=%s\n", err.Error())
	}
}

// Close ship what is cached
func (h *RemoteHook) Close() {
	h.closeOnce.Do(func() {
		close(h.closeLog)
	})
	<-h.done
}
