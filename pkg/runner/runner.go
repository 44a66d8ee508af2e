package runner

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/devsapp/serverless-style-transfer-api/pkg/concurrency"
	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
)

var ErrProcessFailed = errors.New("processing failed")

// Reporter receives cumulative progress 0..100
type Reporter func(progress float64)

// Request one processing job
type Request struct {
	JobID  string
	Image  models.UploadedImage
	Params models.Parameters
	Model  string
	Preset string
}

// Runner executes a job until done, failed or ctx cancelled
type Runner interface {
	Run(ctx context.Context, req *Request, report Reporter) (*models.ResultArtifact, error)
}

// BlobStore image bytes by key
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// EndpointResolver sd webui base url for a model
type EndpointResolver interface {
	GetEndpoint(model string) (string, error)
}

// New runner selected by config.RunnerMode
func New(cfg *config.Config, images BlobStore, endpoints EndpointResolver) Runner {
	if cfg.UseRemoteRunner() {
		remote := &RemoteRunner{
			Images:    images,
			Endpoints: StaticEndpoint(cfg.SdUrlPrefix),
			Interval:  time.Duration(cfg.ProgressInterval) * time.Millisecond,
			Client:    &http.Client{},
		}
		if cfg.UseFunctionEndpoint() && endpoints != nil {
			remote.Endpoints = endpoints
			remote.Gate = concurrency.NewGate(cfg.ColdStartConcurrency, cfg.ModelColdStartSerial)
		}
		return remote
	}
	return NewMockRunner(time.Duration(cfg.MockTickMs)*time.Millisecond,
		time.Duration(cfg.MockDelayMs)*time.Millisecond)
}

// StaticEndpoint fixed sd webui url
type StaticEndpoint string

func (s StaticEndpoint) GetEndpoint(string) (string, error) {
	return string(s), nil
}

// lockedRand rand.Rand is not safe for concurrent use
type lockedRand struct {
	lock sync.Mutex
	r    *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.r.Float64()
}
