package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/log"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
	"github.com/devsapp/serverless-style-transfer-api/pkg/module"
)

const defaultConfigPath = "config.yaml"

func modelIds() string {
	ids := make([]string, 0, len(models.Models))
	for _, m := range models.Models {
		ids = append(ids, m.ID)
	}
	return strings.Join(ids, ",")
}

// exit flush shipped logs, deferred calls do not run on os.Exit
func exit(code int) {
	log.Close()
	os.Exit(code)
}

// deploy ensure one function per model and wait until each answers,
// or delete them with -delete
func main() {
	configFile := flag.String("config", defaultConfigPath, "default config path")
	modelList := flag.String("models", modelIds(), "comma separated model ids")
	retries := flag.Int("retries", 60, "readiness polls per function")
	interval := flag.Duration("interval", 10*time.Second, "readiness poll interval")
	remove := flag.Bool("delete", false, "delete the functions instead")
	mode := flag.String("mode", "dev", "log mode debug|dev|product")
	flag.Parse()

	if err := config.InitConfig(*configFile); err != nil {
		logrus.Fatal(err.Error())
	}
	log.Init(*mode)
	defer log.Close()

	funcManager, err := module.NewFuncManager()
	if err != nil {
		logrus.Fatalf("func manager init fail: %s", err.Error())
	}
	targets := make([]string, 0)
	for _, id := range strings.Split(*modelList, ",") {
		id = strings.TrimSpace(id)
		if _, ok := models.FindModel(id); !ok {
			logrus.Fatalf("unknown model %s", id)
		}
		targets = append(targets, id)
	}

	if *remove {
		fails, errs := funcManager.DeleteFunction(targets)
		for i := range fails {
			fmt.Fprintf(os.Stderr, "%s: %s\n", fails[i], errs[i])
		}
		if len(fails) > 0 {
			exit(1)
		}
		return
	}

	failed := 0
	for _, model := range targets {
		endpoint, err := funcManager.GetEndpoint(model)
		if err != nil {
			logrus.WithFields(logrus.Fields{"model": model}).Errorf("deploy err=%s", err.Error())
			failed++
			continue
		}
		if err := funcManager.WaitReady(endpoint, *retries, *interval); err != nil {
			logrus.WithFields(logrus.Fields{"model": model}).Errorf("ready err=%s", err.Error())
			failed++
			continue
		}
		fmt.Printf("%s\t%s\t%s\n", model, funcManager.GetFunctionName(model), endpoint)
	}
	if failed > 0 {
		exit(1)
	}
}
