package module

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/datastore"
	"github.com/devsapp/serverless-style-transfer-api/pkg/metrics"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/runner"
	"github.com/devsapp/serverless-style-transfer-api/pkg/session"
)

var ErrNoResult = errors.New("no result available")

// Session one client's state plus the job running for it
type Session struct {
	Id string

	store  *session.Store
	images ImageStore
	runner runner.Runner
	tasks  *datastore.TaskStore
	listen *ListenDbTask
	rand   *rand.Rand

	lock      sync.Mutex
	cancelRun context.CancelFunc
	startedAt time.Time
	expired   int64
}

func newSession(id string, images ImageStore, r runner.Runner, tasks *datastore.TaskStore,
	listen *ListenDbTask) *Session {
	return &Session{
		Id:     id,
		store:  session.NewStore(session.NewState()),
		images: images,
		runner: r,
		tasks:  tasks,
		listen: listen,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Session) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"sessionId": s.Id})
}

// State current snapshot
func (s *Session) State() session.State {
	return s.store.State()
}

// Subscribe state and notice feed
func (s *Session) Subscribe() (<-chan session.Event, func()) {
	return s.store.Subscribe()
}

// Dispatch plain state actions, job and image actions go through their own methods
func (s *Session) Dispatch(a session.Action) (session.State, error) {
	return s.store.Dispatch(a)
}

// RandomSeed draw a seed in [0, 999999] and store it
func (s *Session) RandomSeed() (int, error) {
	s.lock.Lock()
	seed := models.RandomSeed(s.rand)
	s.lock.Unlock()
	if _, err := s.store.Dispatch(session.SetSeed{Seed: seed}); err != nil {
		return 0, err
	}
	return seed, nil
}

// SavePreset append a custom preset with a time based id and select it
func (s *Session) SavePreset(name string) (models.Preset, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := time.Now()
	state := s.store.State()
	id := models.CustomPresetID(now)
	for existsPreset(state, id) {
		now = now.Add(time.Millisecond)
		id = models.CustomPresetID(now)
	}
	preset := models.Preset{ID: id, Name: name, Description: config.CustomPresetDesc, Custom: true}
	next, err := s.store.Dispatch(session.SavePreset{Preset: preset})
	if err != nil {
		return models.Preset{}, err
	}
	return next.Custom[len(next.Custom)-1], nil
}

func existsPreset(state session.State, id string) bool {
	for _, p := range state.Presets() {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Upload replace the input image, a running job is cancelled
func (s *Session) Upload(ctx context.Context, data []byte, img models.UploadedImage) error {
	if err := s.images.Put(ctx, img.Key, data, img.ContentType); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	prev := s.store.State()
	next, err := s.store.Dispatch(session.UploadImage{Image: img, At: time.Now()})
	if err != nil {
		return err
	}
	s.invalidated(ctx, prev, next)
	return nil
}

// RemoveImage drop the input image, a running job is cancelled
func (s *Session) RemoveImage(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	prev := s.store.State()
	if prev.Image == nil {
		return session.ErrNoImage
	}
	next, err := s.store.Dispatch(session.RemoveImage{At: time.Now()})
	if err != nil {
		return err
	}
	s.invalidated(ctx, prev, next)
	return nil
}

// invalidated caller holds lock; stop the runner and drop blobs no longer referenced
func (s *Session) invalidated(ctx context.Context, prev, next session.State) {
	if prev.Job.Status.Active() && !next.Job.Status.Active() {
		s.stopRunner(prev.Job.ID, config.TASK_CANCELLED)
	}
	if prev.Image != nil {
		s.deleteBlob(ctx, prev.Image.Key)
	}
	if prev.Result != nil && (prev.Image == nil || prev.Result.Key != prev.Image.Key) {
		s.deleteBlob(ctx, prev.Result.Key)
	}
}

func (s *Session) deleteBlob(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.log().Warnf("delete image %s err=%s", key, err.Error())
	}
}

// Image input image bytes
func (s *Session) Image(ctx context.Context) ([]byte, models.UploadedImage, error) {
	state := s.store.State()
	if state.Image == nil {
		return nil, models.UploadedImage{}, session.ErrNoImage
	}
	data, _, err := s.images.Get(ctx, state.Image.Key)
	if err != nil {
		return nil, models.UploadedImage{}, err
	}
	return data, *state.Image, nil
}

// Start a job for the current image, parameters, model and preset
func (s *Session) Start(ctx context.Context) (models.Job, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	jobId := uuid.NewString()
	next, err := s.store.Dispatch(session.StartJob{ID: jobId, At: time.Now()})
	if err != nil {
		if errors.Is(err, session.ErrNoImage) {
			s.store.Notify(config.NoticeLevelError, config.NoticeNoImage)
		}
		return models.Job{}, err
	}
	fields := logrus.Fields{"sessionId": s.Id, "jobId": jobId}
	if err := s.tasks.Create(jobId, s.Id, next.Model, next.Preset, next.Image.Key, next.Params); err != nil {
		logrus.WithFields(fields).Warnf("persist task err=%s", err.Error())
	}
	if s.listen != nil {
		s.listen.AddTask(jobId, CancelListen, s.cancelByTask)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancelRun = cancel
	s.startedAt = time.Now()
	req := &runner.Request{
		JobID:  jobId,
		Image:  *next.Image,
		Params: next.Params,
		Model:  next.Model,
		Preset: next.Preset,
	}
	logrus.WithFields(fields).Info("job started")
	go s.run(runCtx, req)
	return next.Job, nil
}

func (s *Session) run(ctx context.Context, req *runner.Request) {
	fields := logrus.Fields{"sessionId": s.Id, "jobId": req.JobID}
	result, err := s.runner.Run(ctx, req, func(progress float64) {
		next, _ := s.store.Dispatch(session.ReportProgress{JobID: req.JobID, Progress: progress})
		if next.Running(req.JobID) {
			if err := s.tasks.PutProgress(req.JobID, next.Job.Progress); err != nil {
				logrus.WithFields(fields).Debugf("persist progress err=%s", err.Error())
			}
		}
	})

	s.lock.Lock()
	defer s.lock.Unlock()
	started := s.startedAt
	if ctx.Err() != nil {
		// cancelled, the canceller recorded the outcome
		if result != nil && result.Key != req.Image.Key {
			s.deleteBlob(context.Background(), result.Key)
		}
		return
	}
	s.cancelRun = nil
	if err != nil {
		logrus.WithFields(fields).Errorf("job failed err=%s", err.Error())
		next, _ := s.store.Dispatch(session.FailJob{JobID: req.JobID, Message: err.Error(), At: time.Now()})
		if next.Job.ID == req.JobID && next.Job.Status == models.JobFailed {
			s.store.Notify(config.NoticeLevelError, config.NoticeFailed)
			s.finishTask(req.JobID, config.TASK_FAILED, 0, "", err.Error())
			metrics.ObserveJob(config.TASK_FAILED, started)
		}
		return
	}
	next, _ := s.store.Dispatch(session.CompleteJob{JobID: req.JobID, Result: *result, At: time.Now()})
	if next.Job.ID == req.JobID && next.Job.Status == models.JobCompleted {
		logrus.WithFields(fields).Info("job completed")
		s.store.Notify(config.NoticeLevelSuccess, config.NoticeCompleted)
		s.finishTask(req.JobID, config.TASK_COMPLETED, 100, result.Key, "")
		metrics.ObserveJob(config.TASK_COMPLETED, started)
		return
	}
	// job was invalidated meanwhile
	if result.Key != req.Image.Key {
		s.deleteBlob(context.Background(), result.Key)
	}
}

// Cancel the running job, no partial result is kept
func (s *Session) Cancel() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	jobId := s.store.State().Job.ID
	if _, err := s.store.Dispatch(session.CancelJob{At: time.Now()}); err != nil {
		return err
	}
	s.stopRunner(jobId, config.TASK_CANCELLED)
	if err := s.tasks.PutCancel(jobId, config.CANCEL_VALID); err != nil {
		logrus.WithFields(logrus.Fields{"sessionId": s.Id, "jobId": jobId}).Debugf("persist cancel err=%s", err.Error())
	}
	s.store.Notify(config.NoticeLevelInfo, config.NoticeCancelled)
	return nil
}

// cancelByTask cancel flag seen in the task table
func (s *Session) cancelByTask(taskId string) {
	if s.store.State().Running(taskId) {
		if err := s.Cancel(); err != nil {
			s.log().Warnf("cancel task %s err=%s", taskId, err.Error())
		}
	}
}

// stopRunner caller holds lock
func (s *Session) stopRunner(jobId, status string) {
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	if s.listen != nil {
		s.listen.RemoveTask(jobId)
	}
	s.finishTask(jobId, status, 0, "", "")
	metrics.ObserveJob(status, time.Time{})
}

func (s *Session) finishTask(jobId, status string, progress float64, result, info string) {
	if err := s.tasks.Finish(jobId, status, progress, result, info); err != nil {
		logrus.WithFields(logrus.Fields{"sessionId": s.Id, "jobId": jobId}).Debugf("persist task err=%s", err.Error())
	}
}

// Download result bytes, announces the download
func (s *Session) Download(ctx context.Context) ([]byte, models.ResultArtifact, error) {
	state := s.store.State()
	if state.Result == nil {
		return nil, models.ResultArtifact{}, ErrNoResult
	}
	data, _, err := s.images.Get(ctx, state.Result.Key)
	if err != nil {
		return nil, models.ResultArtifact{}, err
	}
	s.store.Notify(config.NoticeLevelSuccess, config.NoticeDownload)
	return data, *state.Result, nil
}

// Share signed url when the image store supports it, otherwise only the confirmation
func (s *Session) Share(ctx context.Context) (*string, string, error) {
	state := s.store.State()
	if state.Result == nil {
		return nil, "", ErrNoResult
	}
	var link *string
	url, err := s.images.ShareURL(ctx, state.Result.Key)
	switch {
	case err == nil:
		link = &url
	case errors.Is(err, ErrShareNotSupported):
	default:
		return nil, "", fmt.Errorf("share result: %w", err)
	}
	s.store.Notify(config.NoticeLevelSuccess, config.NoticeShare)
	return link, config.NoticeShare, nil
}

// Close cancel the job and drop stored images
func (s *Session) Close() {
	s.lock.Lock()
	state := s.store.State()
	if state.Job.Status.Active() {
		s.stopRunner(state.Job.ID, config.TASK_CANCELLED)
	}
	s.lock.Unlock()
	ctx := context.Background()
	if state.Image != nil {
		s.deleteBlob(ctx, state.Image.Key)
	}
	if state.Result != nil && (state.Image == nil || state.Result.Key != state.Image.Key) {
		s.deleteBlob(ctx, state.Result.Key)
	}
	s.store.Close()
}
