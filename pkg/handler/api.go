// Package handler serves the openapi.yaml operations over gin, in the
// layout oapi-codegen's gin server output uses.
package handler

import (
	"fmt"
	"net/http"

	"github.com/deepmap/oapi-codegen/pkg/runtime"
	"github.com/gin-gonic/gin"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// download result
	// (GET /result)
	DownloadResult(c *gin.Context)
	// share result
	// (POST /result/share)
	ShareResult(c *gin.Context)
	// current image
	// (GET /image)
	GetImage(c *gin.Context)
	// remove image
	// (DELETE /image)
	RemoveImage(c *gin.Context)
	// upload image
	// (PUT /image)
	UploadImage(c *gin.Context)
	// downscaled image
	// (GET /image/preview)
	GetImagePreview(c *gin.Context)
	// start job
	// (POST /jobs)
	StartJob(c *gin.Context)
	// current job
	// (GET /jobs/current)
	GetCurrentJob(c *gin.Context)
	// cancel current job
	// (POST /jobs/current/cancellation)
	CancelJob(c *gin.Context)
	// state and notice stream
	// (GET /jobs/current/events)
	JobEvents(c *gin.Context)
	// list models
	// (GET /models)
	ListModels(c *gin.Context)
	// get parameters
	// (GET /parameters)
	GetParameters(c *gin.Context)
	// update parameters
	// (PUT /parameters)
	UpdateParameters(c *gin.Context)
	// random seed
	// (POST /parameters/seed)
	RandomSeed(c *gin.Context)
	// list presets
	// (GET /presets)
	ListPresets(c *gin.Context)
	// save custom preset
	// (POST /presets)
	CreatePreset(c *gin.Context)
	// delete custom preset
	// (DELETE /presets/{presetId})
	DeletePreset(c *gin.Context, presetId string)
	// update model and preset selection
	// (PUT /selection)
	UpdateSelection(c *gin.Context)
	// create session
	// (POST /sessions)
	CreateSession(c *gin.Context)
	// state snapshot
	// (GET /state)
	GetState(c *gin.Context)
	// runtime info
	// (GET /system)
	GetSystem(c *gin.Context)
	// task record
	// (GET /tasks/{taskId})
	GetTask(c *gin.Context, taskId string)
	// cancel task on any replica
	// (POST /tasks/{taskId}/cancellation)
	CancelTask(c *gin.Context, taskId string)
	// set theme
	// (PUT /theme)
	SetTheme(c *gin.Context)
	// toggle theme
	// (POST /theme/toggle)
	ToggleTheme(c *gin.Context)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandler       func(*gin.Context, error, int)
}

type MiddlewareFunc func(c *gin.Context)

func (siw *ServerInterfaceWrapper) call(c *gin.Context, next func(c *gin.Context)) {
	for _, middleware := range siw.HandlerMiddlewares {
		middleware(c)
		if c.IsAborted() {
			return
		}
	}
	next(c)
}

// DownloadResult operation middleware
func (siw *ServerInterfaceWrapper) DownloadResult(c *gin.Context) {
	siw.call(c, siw.Handler.DownloadResult)
}

// ShareResult operation middleware
func (siw *ServerInterfaceWrapper) ShareResult(c *gin.Context) {
	siw.call(c, siw.Handler.ShareResult)
}

// GetImage operation middleware
func (siw *ServerInterfaceWrapper) GetImage(c *gin.Context) {
	siw.call(c, siw.Handler.GetImage)
}

// RemoveImage operation middleware
func (siw *ServerInterfaceWrapper) RemoveImage(c *gin.Context) {
	siw.call(c, siw.Handler.RemoveImage)
}

// UploadImage operation middleware
func (siw *ServerInterfaceWrapper) UploadImage(c *gin.Context) {
	siw.call(c, siw.Handler.UploadImage)
}

// GetImagePreview operation middleware
func (siw *ServerInterfaceWrapper) GetImagePreview(c *gin.Context) {
	siw.call(c, siw.Handler.GetImagePreview)
}

// StartJob operation middleware
func (siw *ServerInterfaceWrapper) StartJob(c *gin.Context) {
	siw.call(c, siw.Handler.StartJob)
}

// GetCurrentJob operation middleware
func (siw *ServerInterfaceWrapper) GetCurrentJob(c *gin.Context) {
	siw.call(c, siw.Handler.GetCurrentJob)
}

// CancelJob operation middleware
func (siw *ServerInterfaceWrapper) CancelJob(c *gin.Context) {
	siw.call(c, siw.Handler.CancelJob)
}

// JobEvents operation middleware
func (siw *ServerInterfaceWrapper) JobEvents(c *gin.Context) {
	siw.call(c, siw.Handler.JobEvents)
}

// ListModels operation middleware
func (siw *ServerInterfaceWrapper) ListModels(c *gin.Context) {
	siw.call(c, siw.Handler.ListModels)
}

// GetParameters operation middleware
func (siw *ServerInterfaceWrapper) GetParameters(c *gin.Context) {
	siw.call(c, siw.Handler.GetParameters)
}

// UpdateParameters operation middleware
func (siw *ServerInterfaceWrapper) UpdateParameters(c *gin.Context) {
	siw.call(c, siw.Handler.UpdateParameters)
}

// RandomSeed operation middleware
func (siw *ServerInterfaceWrapper) RandomSeed(c *gin.Context) {
	siw.call(c, siw.Handler.RandomSeed)
}

// ListPresets operation middleware
func (siw *ServerInterfaceWrapper) ListPresets(c *gin.Context) {
	siw.call(c, siw.Handler.ListPresets)
}

// CreatePreset operation middleware
func (siw *ServerInterfaceWrapper) CreatePreset(c *gin.Context) {
	siw.call(c, siw.Handler.CreatePreset)
}

// DeletePreset operation middleware
func (siw *ServerInterfaceWrapper) DeletePreset(c *gin.Context) {

	var err error

	// ------------- Path parameter "presetId" -------------
	var presetId string

	err = runtime.BindStyledParameterWithLocation("simple", false, "presetId", runtime.ParamLocationPath, c.Param("presetId"), &presetId)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter presetId: %w", err), http.StatusBadRequest)
		return
	}

	siw.call(c, func(c *gin.Context) {
		siw.Handler.DeletePreset(c, presetId)
	})
}

// UpdateSelection operation middleware
func (siw *ServerInterfaceWrapper) UpdateSelection(c *gin.Context) {
	siw.call(c, siw.Handler.UpdateSelection)
}

// CreateSession operation middleware
func (siw *ServerInterfaceWrapper) CreateSession(c *gin.Context) {
	siw.call(c, siw.Handler.CreateSession)
}

// GetState operation middleware
func (siw *ServerInterfaceWrapper) GetState(c *gin.Context) {
	siw.call(c, siw.Handler.GetState)
}

// GetSystem operation middleware
func (siw *ServerInterfaceWrapper) GetSystem(c *gin.Context) {
	siw.call(c, siw.Handler.GetSystem)
}

// GetTask operation middleware
func (siw *ServerInterfaceWrapper) GetTask(c *gin.Context) {

	var err error

	// ------------- Path parameter "taskId" -------------
	var taskId string

	err = runtime.BindStyledParameterWithLocation("simple", false, "taskId", runtime.ParamLocationPath, c.Param("taskId"), &taskId)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter taskId: %w", err), http.StatusBadRequest)
		return
	}

	siw.call(c, func(c *gin.Context) {
		siw.Handler.GetTask(c, taskId)
	})
}

// CancelTask operation middleware
func (siw *ServerInterfaceWrapper) CancelTask(c *gin.Context) {

	var err error

	// ------------- Path parameter "taskId" -------------
	var taskId string

	err = runtime.BindStyledParameterWithLocation("simple", false, "taskId", runtime.ParamLocationPath, c.Param("taskId"), &taskId)
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter taskId: %w", err), http.StatusBadRequest)
		return
	}

	siw.call(c, func(c *gin.Context) {
		siw.Handler.CancelTask(c, taskId)
	})
}

// SetTheme operation middleware
func (siw *ServerInterfaceWrapper) SetTheme(c *gin.Context) {
	siw.call(c, siw.Handler.SetTheme)
}

// ToggleTheme operation middleware
func (siw *ServerInterfaceWrapper) ToggleTheme(c *gin.Context) {
	siw.call(c, siw.Handler.ToggleTheme)
}

// GinServerOptions provides options for the Gin server.
type GinServerOptions struct {
	BaseURL      string
	Middlewares  []MiddlewareFunc
	ErrorHandler func(*gin.Context, error, int)
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, GinServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, options GinServerOptions) {
	errorHandler := options.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(c *gin.Context, err error, statusCode int) {
			c.JSON(statusCode, gin.H{"msg": err.Error()})
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandler:       errorHandler,
	}

	router.GET(options.BaseURL+"/image", wrapper.GetImage)
	router.DELETE(options.BaseURL+"/image", wrapper.RemoveImage)
	router.PUT(options.BaseURL+"/image", wrapper.UploadImage)
	router.GET(options.BaseURL+"/image/preview", wrapper.GetImagePreview)
	router.POST(options.BaseURL+"/jobs", wrapper.StartJob)
	router.GET(options.BaseURL+"/jobs/current", wrapper.GetCurrentJob)
	router.POST(options.BaseURL+"/jobs/current/cancellation", wrapper.CancelJob)
	router.GET(options.BaseURL+"/jobs/current/events", wrapper.JobEvents)
	router.GET(options.BaseURL+"/models", wrapper.ListModels)
	router.GET(options.BaseURL+"/parameters", wrapper.GetParameters)
	router.PUT(options.BaseURL+"/parameters", wrapper.UpdateParameters)
	router.POST(options.BaseURL+"/parameters/seed", wrapper.RandomSeed)
	router.GET(options.BaseURL+"/presets", wrapper.ListPresets)
	router.POST(options.BaseURL+"/presets", wrapper.CreatePreset)
	router.DELETE(options.BaseURL+"/presets/:presetId", wrapper.DeletePreset)
	router.GET(options.BaseURL+"/result", wrapper.DownloadResult)
	router.POST(options.BaseURL+"/result/share", wrapper.ShareResult)
	router.PUT(options.BaseURL+"/selection", wrapper.UpdateSelection)
	router.POST(options.BaseURL+"/sessions", wrapper.CreateSession)
	router.GET(options.BaseURL+"/state", wrapper.GetState)
	router.GET(options.BaseURL+"/system", wrapper.GetSystem)
	router.GET(options.BaseURL+"/tasks/:taskId", wrapper.GetTask)
	router.POST(options.BaseURL+"/tasks/:taskId/cancellation", wrapper.CancelTask)
	router.PUT(options.BaseURL+"/theme", wrapper.SetTheme)
	router.POST(options.BaseURL+"/theme/toggle", wrapper.ToggleTheme)
}
