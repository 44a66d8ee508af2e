package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/module"
	"github.com/devsapp/serverless-style-transfer-api/pkg/session"
)

const (
	sessionHeader = "X-Session-Id"
	sessionCookie = "session"
	apiKeyHeader  = "API-KEY"
	sessionKey    = "styleSession"
)

func getBindResult(c *gin.Context, in interface{}) error {
	if err := binding.JSON.Bind(c.Request, in); err != nil {
		return err
	}
	return nil
}

func handleError(c *gin.Context, code int, err string) {
	c.JSON(code, gin.H{"message": err})
}

// handleErr map a domain error to its status and user message
func handleErr(c *gin.Context, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{"path": c.FullPath()}).Errorf("request err=%s", err.Error())
	}
	handleError(c, code, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNoImage):
		return http.StatusBadRequest, config.NoticeNoImage
	case errors.Is(err, session.ErrEmptyPresetName):
		return http.StatusBadRequest, config.NoticePresetName
	case errors.Is(err, session.ErrBuiltinPreset),
		errors.Is(err, session.ErrDuplicatePreset),
		errors.Is(err, models.ErrInvalidParameters):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrJobRunning):
		return http.StatusConflict, config.NoticeJobRunning
	case errors.Is(err, session.ErrJobNotRunning):
		return http.StatusConflict, err.Error()
	case errors.Is(err, module.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, module.ErrNotImage):
		return http.StatusUnsupportedMediaType, config.NoticeNotImage
	case errors.Is(err, module.ErrNoResult):
		return http.StatusNotFound, config.NoticeNoResult
	case errors.Is(err, session.ErrUnknownModel),
		errors.Is(err, session.ErrUnknownPreset),
		errors.Is(err, module.ErrImageNotFound),
		errors.Is(err, module.ErrTaskNotFound):
		return http.StatusNotFound, err.Error()
	}
	return http.StatusInternalServerError, config.INTERNALERROR
}
