package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/datastore"
	"github.com/devsapp/serverless-style-transfer-api/pkg/handler"
	"github.com/devsapp/serverless-style-transfer-api/pkg/metrics"
	"github.com/devsapp/serverless-style-transfer-api/pkg/module"
	"github.com/devsapp/serverless-style-transfer-api/pkg/runner"
)

type StyleServer struct {
	srv      *http.Server
	router   *gin.Engine
	sessions *module.SessionManager
	tasks    *datastore.TaskStore
}

func NewStyleServer(port string, dbType datastore.DatastoreType, mode string) (*StyleServer, error) {
	// init image store
	images, err := module.NewImageStore()
	if err != nil {
		logrus.Errorf("image store init error %v", err)
		return nil, err
	}
	// init task table
	tasks, err := datastore.NewTaskDataStore(dbType)
	if err != nil {
		logrus.Errorf("task table init error %v", err)
		return nil, err
	}
	// init runner, function endpoints only when no fixed sd url is set
	var endpoints runner.EndpointResolver
	if config.ConfigGlobal.UseFunctionEndpoint() {
		funcManager, err := module.NewFuncManager()
		if err != nil {
			logrus.Errorf("func manage init error %v", err)
			tasks.Close()
			return nil, err
		}
		endpoints = funcManager
	}
	jobRunner := runner.New(config.ConfigGlobal, images, endpoints)
	sessions := module.NewSessionManager(images, jobRunner, tasks)
	styleHandler := handler.NewStyleHandler(sessions, dbType)

	// init router
	if mode == gin.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(cors.New(corsConfig()))
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(metrics.Stat())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", metrics.Handler())
	router.GET("/openapi.json", openapiHandler)

	// auth permission check
	if config.ConfigGlobal.EnableLogin() {
		router.Use(handler.ApiAuth())
	}
	handler.RegisterHandlersWithOptions(router, styleHandler, handler.GinServerOptions{
		ErrorHandler: func(c *gin.Context, err error, code int) {
			c.JSON(code, gin.H{"message": err.Error()})
		},
	})
	router.NoRoute(styleHandler.NoRouterHandler)

	return &StyleServer{
		srv: &http.Server{
			Addr:    net.JoinHostPort("0.0.0.0", port),
			Handler: router,
		},
		router:   router,
		sessions: sessions,
		tasks:    tasks,
	}, nil
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AddAllowHeaders("X-Session-Id", "API-KEY")
	cfg.ExposeHeaders = []string{"Content-Disposition"}
	return cfg
}

func openapiHandler(c *gin.Context) {
	swagger, err := handler.GetSwagger()
	if err != nil {
		logrus.Errorf("load openapi err=%s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": config.INTERNALERROR})
		return
	}
	c.JSON(http.StatusOK, swagger)
}

// Start style server
func (s *StyleServer) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.Fatalf("listen: %s\n", err)
		return err
	}
	return nil
}

// Close shutdown style server, timeout=shutdownTimeout
func (s *StyleServer) Close(shutdownTimeout time.Duration) error {
	// sessions first, ends event streams and persists cancelled jobs
	s.sessions.Close()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	if s.tasks != nil {
		s.tasks.Close()
	}
	if err != nil {
		logrus.Error("Server forced to shutdown: ", err)
		return err
	}
	return nil
}
