package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/datastore"
	"github.com/devsapp/serverless-style-transfer-api/pkg/log"
	"github.com/devsapp/serverless-style-transfer-api/pkg/server"
)

const (
	defaultPort       = "8000"
	defaultDBType     = datastore.SQLite
	shutdownTimeout   = 5 * time.Second // 5s
	defaultConfigPath = "config.yaml"
)

func handleSignal() {
	// Wait for interrupt signal to gracefully shutdown the server with
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")
}

func main() {
	port := flag.String("port", defaultPort, "server listen port, default 8000")
	dbType := flag.String("dbType", string(defaultDBType), "db type sqlite|tableStore, default sqlite")
	configFile := flag.String("config", defaultConfigPath, "default config path")
	mode := flag.String("mode", "dev", "service work mode debug|dev|product")
	flag.Parse()

	// init config
	if err := config.InitConfig(*configFile); err != nil {
		logrus.Fatal(err.Error())
	}
	// init log
	log.Init(*mode)
	defer log.Close()
	logrus.Info("style server start")

	// init server and start
	styleServer, err := server.NewStyleServer(*port, datastore.DatastoreType(*dbType), *mode)
	if err != nil {
		logrus.Fatal("style server init fail")
	}
	go styleServer.Start()

	// wait shutdown signal
	handleSignal()

	if err := styleServer.Close(shutdownTimeout); err != nil {
		logrus.Error("Shutdown server fail")
	}

	logrus.Info("Server exited")
}
