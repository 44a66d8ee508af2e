package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/models"
)

// GetSystem runner, storage and host resources; probe failures leave zero values
// (GET /system)
func (h *StyleHandler) GetSystem(c *gin.Context) {
	info := models.SystemInfo{
		RunnerMode:    config.ConfigGlobal.RunnerMode,
		StorageDriver: string(h.dbType),
		Sessions:      h.sessions.Len(),
		ModelStatus:   config.ModelReadyLabel,
		Accelerator:   config.AccelerationLabel,
	}
	if n, err := cpu.Counts(true); err == nil {
		info.CpuCount = n
	} else {
		logrus.Debugf("cpu count err=%s", err.Error())
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemTotal = vm.Total
		info.MemAvailable = vm.Available
	} else {
		logrus.Debugf("virtual memory err=%s", err.Error())
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			info.ProcessRss = memInfo.RSS
		}
	}
	c.JSON(http.StatusOK, info)
}
