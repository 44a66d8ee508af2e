package concurrency

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/utils"
)

const defaultPeriod = 2 * time.Second

// Gate avoid excessive cold start concurrency on function compute endpoints
type Gate struct {
	metrics    *sync.Map
	curColdNum int32
	limit      int32
	serial     bool
	period     time.Duration
}

// NewGate at most limit concurrent cold starts overall; serial allows one per model
func NewGate(limit int32, serial bool) *Gate {
	return &Gate{
		metrics: new(sync.Map),
		limit:   limit,
		serial:  serial,
		period:  defaultPeriod,
	}
}

func (g *Gate) metric(model string) *metric {
	val, _ := g.metrics.LoadOrStore(model, newMetric())
	return val.(*metric)
}

// Acquire wait until a job for model may run, cold reports a cold start slot
// that must be returned with Warm
func (g *Gate) Acquire(ctx context.Context, model string) (bool, error) {
	m := g.metric(model)
	for {
		m.lock.Lock()
		cold := m.isCold(utils.TimestampS())
		m.lock.Unlock()

		if !cold {
			atomic.AddInt32(&m.concurrency, 1)
			return false, nil
		}
		if atomic.AddInt32(&g.curColdNum, 1) <= g.limit && (!g.serial || !m.coldFlag.Swap(true)) {
			atomic.AddInt32(&m.concurrency, 1)
			return true, nil
		}
		atomic.AddInt32(&g.curColdNum, -1)

		logrus.WithFields(logrus.Fields{"model": model}).Debug("cold start limit reached, waiting")
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(g.period):
		}
	}
}

// Warm the cold start of model finished
func (g *Gate) Warm(model string) {
	if g.serial {
		g.metric(model).coldFlag.Store(false)
	}
	atomic.AddInt32(&g.curColdNum, -1)
}

// Release job for model done
func (g *Gate) Release(model string) {
	g.metric(model).done()
}

// ColdStarts in flight
func (g *Gate) ColdStarts() int32 {
	return atomic.LoadInt32(&g.curColdNum)
}
