package runner

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
)

const mockProgressCap = 95

// MockRunner fabricates progress and returns the input image unchanged
type MockRunner struct {
	Tick  time.Duration
	Delay time.Duration
	rand  *lockedRand
}

func NewMockRunner(tick, delay time.Duration) *MockRunner {
	return &MockRunner{
		Tick:  tick,
		Delay: delay,
		rand:  &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
	}
}

// WithSeed deterministic increments
func (m *MockRunner) WithSeed(seed int64) *MockRunner {
	m.rand = &lockedRand{r: rand.New(rand.NewSource(seed))}
	return m
}

func (m *MockRunner) Run(ctx context.Context, req *Request, report Reporter) (*models.ResultArtifact, error) {
	ticker := time.NewTicker(m.Tick)
	defer ticker.Stop()
	done := time.NewTimer(m.Delay)
	defer done.Stop()

	progress := 0.0
	for {
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{"jobId": req.JobID}).Debug("mock job cancelled")
			return nil, ctx.Err()
		case <-ticker.C:
			progress += m.rand.Float64() * 10
			if progress > mockProgressCap {
				progress = mockProgressCap
			}
			if report != nil {
				report(progress)
			}
		case <-done.C:
			return &models.ResultArtifact{
				Key:         req.Image.Key,
				Name:        req.Image.Name,
				ContentType: req.Image.ContentType,
				Size:        req.Image.Size,
				JobID:       req.JobID,
			}, nil
		}
	}
}
