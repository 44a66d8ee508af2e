package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/datastore"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/module"
	"github.com/devsapp/serverless-style-transfer-api/pkg/session"
)

const (
	minPreviewDim = 16
	maxPreviewDim = 2048
)

type StyleHandler struct {
	sessions *module.SessionManager
	dbType   datastore.DatastoreType
}

func NewStyleHandler(sessions *module.SessionManager, dbType datastore.DatastoreType) *StyleHandler {
	return &StyleHandler{
		sessions: sessions,
		dbType:   dbType,
	}
}

func stateResponse(s session.State) models.StateResponse {
	hint := config.ReadyLabel
	if s.Image == nil {
		hint = config.UploadToContinue
	}
	return models.StateResponse{
		CanStart:    s.CanStart(),
		Dark:        s.Dark,
		Hint:        hint,
		Image:       s.Image,
		Job:         s.Job,
		Models:      models.Models,
		Parameters:  s.Params,
		Presets:     s.Presets(),
		Result:      s.Result,
		Selection:   models.Selection{Model: s.Model, Preset: s.Preset},
		UploadLabel: config.UploadLimitLabel,
	}
}

// CreateSession new session with the initial state
// (POST /sessions)
func (h *StyleHandler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	expired := h.sessions.Expired(s)
	c.SetCookie(sessionCookie, s.Id, int(config.ConfigGlobal.SessionExpire), "/", "", false, true)
	c.JSON(http.StatusCreated, models.Session{SessionId: s.Id, Expired: expired})
}

// GetState full snapshot
// (GET /state)
func (h *StyleHandler) GetState(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateResponse(s.State()))
}

// SetTheme
// (PUT /theme)
func (h *StyleHandler) SetTheme(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	request := new(models.SetThemeJSONRequestBody)
	if err := getBindResult(c, request); err != nil {
		handleError(c, http.StatusBadRequest, config.BADREQUEST)
		return
	}
	state, err := s.Dispatch(session.SetTheme{Dark: request.Dark})
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Theme{Dark: state.Dark})
}

// ToggleTheme
// (POST /theme/toggle)
func (h *StyleHandler) ToggleTheme(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	state, err := s.Dispatch(session.ToggleTheme{})
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Theme{Dark: state.Dark})
}

// GetParameters
// (GET /parameters)
func (h *StyleHandler) GetParameters(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.State().Params)
}

// UpdateParameters whole parameter set, bounds checked
// (PUT /parameters)
func (h *StyleHandler) UpdateParameters(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	request := new(models.UpdateParametersJSONRequestBody)
	if err := getBindResult(c, request); err != nil {
		handleError(c, http.StatusBadRequest, config.BADREQUEST)
		return
	}
	state, err := s.Dispatch(session.SetParameters{Params: *request})
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, state.Params)
}

// RandomSeed
// (POST /parameters/seed)
func (h *StyleHandler) RandomSeed(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	seed, err := s.RandomSeed()
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SeedResponse{Seed: seed})
}

// ListModels
// (GET /models)
func (h *StyleHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, models.Models)
}

// UpdateSelection model and/or preset, nothing changes when either id is unknown
// (PUT /selection)
func (h *StyleHandler) UpdateSelection(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	request := new(models.UpdateSelectionJSONRequestBody)
	if err := getBindResult(c, request); err != nil {
		handleError(c, http.StatusBadRequest, config.BADREQUEST)
		return
	}
	state, err := s.Dispatch(session.Select{Model: request.Model, Preset: request.Preset})
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Selection{Model: state.Model, Preset: state.Preset})
}

// ListPresets
// (GET /presets)
func (h *StyleHandler) ListPresets(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.State().Presets())
}

// CreatePreset
// (POST /presets)
func (h *StyleHandler) CreatePreset(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	request := new(models.CreatePresetJSONRequestBody)
	if err := getBindResult(c, request); err != nil {
		handleError(c, http.StatusBadRequest, config.BADREQUEST)
		return
	}
	preset, err := s.SavePreset(request.Name)
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, preset)
}

// DeletePreset
// (DELETE /presets/{presetId})
func (h *StyleHandler) DeletePreset(c *gin.Context, presetId string) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := s.Dispatch(session.DeletePreset{ID: presetId}); err != nil {
		handleErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage multipart field "file"
// (PUT /image)
func (h *StyleHandler) UploadImage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	header, err := c.FormFile(module.UploadField)
	if err != nil {
		handleError(c, http.StatusBadRequest, config.BADREQUEST)
		return
	}
	data, img, err := module.ReadUpload(header)
	if err != nil {
		handleErr(c, err)
		return
	}
	if err := s.Upload(c.Request.Context(), data, img); err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

// GetImage
// (GET /image)
func (h *StyleHandler) GetImage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	data, img, err := s.Image(c.Request.Context())
	if err != nil {
		handleErr(c, err)
		return
	}
	c.Data(http.StatusOK, img.ContentType, data)
}

// RemoveImage
// (DELETE /image)
func (h *StyleHandler) RemoveImage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.RemoveImage(c.Request.Context()); err != nil {
		handleErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetImagePreview png, longest side at most ?size=
// (GET /image/preview)
func (h *StyleHandler) GetImagePreview(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	size := module.DefaultPreviewDim
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minPreviewDim || n > maxPreviewDim {
			handleError(c, http.StatusBadRequest, fmt.Sprintf("size must be in [%d,%d]", minPreviewDim, maxPreviewDim))
			return
		}
		size = n
	}
	data, _, err := s.Image(c.Request.Context())
	if err != nil {
		handleErr(c, err)
		return
	}
	preview, err := module.Preview(data, size)
	if errors.Is(err, module.ErrImageTooLarge) {
		handleErr(c, err)
		return
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"sessionId": s.Id}).Warnf("preview err=%s", err.Error())
		handleError(c, http.StatusUnsupportedMediaType, config.NoticeNotImage)
		return
	}
	c.Data(http.StatusOK, "image/png", preview)
}

// StartJob
// (POST /jobs)
func (h *StyleHandler) StartJob(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	job, err := s.Start(c.Request.Context())
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.JobResponse{Job: job})
}

// GetCurrentJob
// (GET /jobs/current)
func (h *StyleHandler) GetCurrentJob(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.State().Job)
}

// CancelJob
// (POST /jobs/current/cancellation)
func (h *StyleHandler) CancelJob(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Cancel(); err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.JobResponse{Job: s.State().Job, Message: config.NoticeCancelled})
}

// JobEvents server sent events: "state" snapshots and "notice" messages
// (GET /jobs/current/events)
func (h *StyleHandler) JobEvents(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	events, cancel := s.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("state", stateResponse(s.State()))
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-events:
			if !ok {
				return false
			}
			if e.Notice != nil {
				c.SSEvent("notice", e.Notice)
			}
			if e.State != nil {
				c.SSEvent("state", stateResponse(*e.State))
			}
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// GetTask
// (GET /tasks/{taskId})
func (h *StyleHandler) GetTask(c *gin.Context, taskId string) {
	record, err := h.sessions.Task(taskId)
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// CancelTask
// (POST /tasks/{taskId}/cancellation)
func (h *StyleHandler) CancelTask(c *gin.Context, taskId string) {
	if err := h.sessions.CancelTask(taskId); err != nil {
		handleErr(c, err)
		return
	}
	c.String(http.StatusOK, "success")
}

// DownloadResult attachment
// (GET /result)
func (h *StyleHandler) DownloadResult(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	data, result, err := s.Download(c.Request.Context())
	if err != nil {
		handleErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Name))
	c.Data(http.StatusOK, result.ContentType, data)
}

// ShareResult
// (POST /result/share)
func (h *StyleHandler) ShareResult(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	url, msg, err := s.Share(c.Request.Context())
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ShareResponse{Message: msg, Url: url})
}

// NoRouterHandler
func (h *StyleHandler) NoRouterHandler(c *gin.Context) {
	handleError(c, http.StatusNotFound, config.NOTFOUND)
}
