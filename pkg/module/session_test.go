package module

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/runner"
	"github.com/devsapp/serverless-style-transfer-api/pkg/session"
)

func newTestManager(t *testing.T, delay time.Duration) (*SessionManager, *MemoryImageStore) {
	tasks := newTaskStore(t)
	images := NewMemoryImageStore()
	r := runner.NewMockRunner(2*time.Millisecond, delay).WithSeed(1)
	m := newSessionManager(images, r, tasks, newListenDbTask(5*time.Millisecond, tasks.Datastore()), 10*time.Millisecond)
	t.Cleanup(m.Close)
	return m, images
}

func upload(t *testing.T, s *Session, key string) {
	img := models.UploadedImage{Key: key, Name: "cat.png", ContentType: "image/png", Size: 3}
	require.NoError(t, s.Upload(context.Background(), []byte{1, 2, 3}, img))
}

func waitStatus(t *testing.T, s *Session, status models.JobStatus) {
	assert.Eventually(t, func() bool {
		return s.State().Job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStartWithoutImage(t *testing.T) {
	m, _ := newTestManager(t, 20*time.Millisecond)
	s := m.Create()
	events, cancel := s.Subscribe()
	defer cancel()

	_, err := s.Start(context.Background())
	assert.ErrorIs(t, err, session.ErrNoImage)
	e := <-events
	require.NotNil(t, e.Notice)
	assert.Equal(t, config.NoticeNoImage, e.Notice.Message)
	assert.Equal(t, models.JobIdle, s.State().Job.Status)
}

func TestJobCompletes(t *testing.T) {
	m, _ := newTestManager(t, 30*time.Millisecond)
	s := m.Create()
	upload(t, s, "inputs/a")

	job, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, job.Status)
	assert.False(t, s.State().CanStart())

	_, err = s.Start(context.Background())
	assert.ErrorIs(t, err, session.ErrJobRunning)

	waitStatus(t, s, models.JobCompleted)
	state := s.State()
	assert.Equal(t, 100.0, state.Job.Progress)
	require.NotNil(t, state.Result)
	assert.Equal(t, job.ID, state.Result.JobID)

	data, result, err := s.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, "inputs/a", result.Key)

	record, err := m.Task(job.ID)
	require.NoError(t, err)
	assert.Equal(t, config.TASK_COMPLETED, record.Status)
	assert.Equal(t, s.Id, record.SessionId)
}

func TestCancelJob(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	s := m.Create()
	upload(t, s, "inputs/a")
	assert.ErrorIs(t, s.Cancel(), session.ErrJobNotRunning)

	job, err := s.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Cancel())

	state := s.State()
	assert.Equal(t, models.JobCancelled, state.Job.Status)
	assert.Nil(t, state.Result)
	assert.True(t, state.CanStart())

	record, err := m.Task(job.ID)
	require.NoError(t, err)
	assert.Equal(t, config.TASK_CANCELLED, record.Status)
	assert.Equal(t, int64(config.CANCEL_VALID), record.Cancel)
}

func TestCancelTaskById(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	s := m.Create()
	upload(t, s, "inputs/a")
	job, err := s.Start(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, m.CancelTask("absent"), ErrTaskNotFound)
	require.NoError(t, m.CancelTask(job.ID))
	waitStatus(t, s, models.JobCancelled)
}

func TestUploadDuringJob(t *testing.T) {
	m, images := newTestManager(t, time.Hour)
	s := m.Create()
	upload(t, s, "inputs/a")
	_, err := s.Start(context.Background())
	require.NoError(t, err)

	upload(t, s, "inputs/b")
	state := s.State()
	assert.Equal(t, models.JobCancelled, state.Job.Status)
	assert.Equal(t, "inputs/b", state.Image.Key)
	_, _, err = images.Get(context.Background(), "inputs/a")
	assert.ErrorIs(t, err, ErrImageNotFound)

	require.NoError(t, s.RemoveImage(context.Background()))
	assert.Nil(t, s.State().Image)
	assert.Equal(t, 0, images.Len())
	assert.ErrorIs(t, s.RemoveImage(context.Background()), session.ErrNoImage)
}

func TestSavePresetAndSeed(t *testing.T) {
	m, _ := newTestManager(t, time.Hour)
	s := m.Create()

	first, err := s.SavePreset("  Mine ")
	require.NoError(t, err)
	second, err := s.SavePreset("Mine")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Mine", first.Name)
	assert.Equal(t, second.ID, s.State().Preset)

	_, err = s.SavePreset("   ")
	assert.ErrorIs(t, err, session.ErrEmptyPresetName)

	seed, err := s.RandomSeed()
	require.NoError(t, err)
	assert.Equal(t, seed, s.State().Params.Seed)
	assert.NoError(t, models.ValidateSeed(seed))
}

func TestShareWithoutSigning(t *testing.T) {
	m, _ := newTestManager(t, 10*time.Millisecond)
	s := m.Create()
	_, _, err := s.Share(context.Background())
	assert.ErrorIs(t, err, ErrNoResult)
	_, _, err = s.Download(context.Background())
	assert.ErrorIs(t, err, ErrNoResult)

	upload(t, s, "inputs/a")
	_, err = s.Start(context.Background())
	require.NoError(t, err)
	waitStatus(t, s, models.JobCompleted)

	link, msg, err := s.Share(context.Background())
	require.NoError(t, err)
	assert.Nil(t, link)
	assert.Equal(t, config.NoticeShare, msg)
}

func TestSessionExpiry(t *testing.T) {
	m, images := newTestManager(t, time.Hour)
	s := m.Create()
	got, ok := m.Get(s.Id)
	assert.True(t, ok)
	assert.Same(t, s, got)
	_, ok = m.Get("short")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())

	old := m.Create()
	upload(t, old, "inputs/old")
	atomic.StoreInt64(&old.expired, 0)
	assert.Eventually(t, func() bool {
		_, ok := m.Get(old.Id)
		return !ok && m.Len() == 1
	}, time.Second, 5*time.Millisecond)
	_, _, err := images.Get(context.Background(), "inputs/old")
	assert.ErrorIs(t, err, ErrImageNotFound)

	assert.True(t, m.Remove(s.Id))
	assert.False(t, m.Remove(s.Id))
	assert.Equal(t, 0, m.Len())
}
