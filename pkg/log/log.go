package log

import (
	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
)

var remoteHook *RemoteHook

// Init set level by mode debug|dev|product, then ship logs when a remote
// log service is configured
func Init(mode string) {
	switch mode {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
		// include function and file
		logrus.SetReportCaller(true)
	case "dev":
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
	if config.ConfigGlobal.SendLogToRemote() && remoteHook == nil {
		remoteHook = NewRemoteHook(NewMonitor(config.ConfigGlobal.LogRemoteService),
			config.ConfigGlobal.AccountId, config.ConfigGlobal.ServerName)
		logrus.AddHook(remoteHook)
	}
}

// Close flush the remote hook
func Close() {
	if remoteHook != nil {
		remoteHook.Close()
	}
}
