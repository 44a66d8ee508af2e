package log

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	lock    sync.Mutex
	batches [][]*Log
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var batch []*Log
	if r.URL.Path != "/"+logPath || json.NewDecoder(r.Body).Decode(&batch) != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	c.lock.Lock()
	c.batches = append(c.batches, batch)
	c.lock.Unlock()
}

func TestRemoteHookBatches(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	hook := NewRemoteHook(NewMonitor(srv.URL+"/"), "1234", "style-transfer-api")
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(hook)

	for i := 0; i < defaultCacheCount+6; i++ {
		logger.WithFields(logrus.Fields{"sessionId": "s1", "jobId": "j1"}).Info("tick")
	}
	hook.Close()
	hook.Close()

	c.lock.Lock()
	defer c.lock.Unlock()
	require.Len(t, c.batches, 2)
	assert.Len(t, c.batches[0], defaultCacheCount)
	assert.Len(t, c.batches[1], 6)
	first := c.batches[0][0]
	assert.Equal(t, "1234", first.AccountID)
	assert.Equal(t, "info", first.Level)
	assert.Equal(t, "s1", first.SessionID)
	assert.Equal(t, "j1", first.JobID)
	assert.Equal(t, "style-transfer-api", first.Source)
}

func TestMonitorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	assert.Error(t, NewMonitor(srv.URL).Post([]byte("[]"), logPath))
}

func TestRemoteHookSizeLimit(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	hook := NewRemoteHook(NewMonitor(srv.URL), "1234", "style-transfer-api")
	msg := strings.Repeat("x", 1024)
	for i := 0; i < 40; i++ {
		require.NoError(t, hook.Fire(&logrus.Entry{Level: logrus.WarnLevel, Time: time.Now(), Message: msg}))
	}
	hook.Close()

	c.lock.Lock()
	defer c.lock.Unlock()
	require.Len(t, c.batches, 3)
	assert.Len(t, c.batches[0], 16)
	assert.Len(t, c.batches[1], 16)
	assert.Len(t, c.batches[2], 8)
}
