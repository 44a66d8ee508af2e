package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/devsapp/serverless-style-transfer-api/pkg/utils"
)

const (
	windowExpired = 3 * 60 // 3min
	windowLength  = 1024
)

type point struct {
	time int64
	val  int32
}

// metric per model history of concurrency peaks, a job above every peak
// seen inside the window needs a new (cold) function instance
type metric struct {
	lock        sync.Mutex
	window      []*point
	coldFlag    atomic.Bool
	concurrency int32
}

func newMetric() *metric {
	return &metric{
		window: make([]*point, 0, windowLength),
	}
}

// isCold caller holds lock
func (m *metric) isCold(now int64) bool {
	threshold := now - windowExpired
	if len(m.window) == 0 || m.window[len(m.window)-1].time < threshold {
		m.window = m.window[:0]
		return true
	}
	idx := m.findLeftNearestTime(threshold)
	m.window = m.window[idx:]
	return atomic.LoadInt32(&m.concurrency) >= m.window[0].val
}

// done record the concurrency the job ran at, keep peaks in descending order
func (m *metric) done() {
	m.lock.Lock()
	defer m.lock.Unlock()
	cur := atomic.LoadInt32(&m.concurrency)
	curPoint := &point{utils.TimestampS(), cur}
	n := len(m.window)
	if n == 0 || m.window[n-1].val > cur {
		m.window = append(m.window, curPoint)
	} else {
		idx := m.findLeftNearestConcurrency(cur)
		m.window[idx] = curPoint
		m.window = m.window[:idx+1]
	}
	atomic.AddInt32(&m.concurrency, -1)
}

func (m *metric) findLeftNearestTime(val int64) int {
	low := 0
	high := len(m.window) - 1
	for low <= high {
		mid := (low + high) / 2
		if m.window[mid].time < val {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return low
}

func (m *metric) findLeftNearestConcurrency(val int32) int {
	low := 0
	high := len(m.window) - 1
	for low <= high {
		mid := (low + high) / 2
		if m.window[mid].val <= val {
			high = mid - 1
		} else {
			low = mid + 1
		}
	}
	return low
}
