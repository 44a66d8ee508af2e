package module

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	fc3 "github.com/alibabacloud-go/fc-20230330/client"
	fcService "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/sirupsen/logrus"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/utils"
)

const (
	RETRY_INTERVALMS = time.Duration(10) * time.Millisecond
	readyTimeout     = 5 * time.Second
)

var ErrFunctionNotReady = errors.New("function endpoint not ready")

// FuncResource Fc resource
type FuncResource struct {
	Image          string                  `json:"image"`
	CPU            float32                 `json:"cpu"`
	GpuMemorySize  int32                   `json:"gpuMemorySize"`
	InstanceType   string                  `json:"InstanceType"`
	MemorySize     int32                   `json:"memorySize"`
	Timeout        int32                   `json:"timeout"`
	Env            map[string]*string      `json:"env"`
	VpcConfig      *map[string]interface{} `json:"vpcConfig"`
	NasConfig      *map[string]interface{} `json:"nasConfig"`
	OssMountConfig *map[string]interface{} `json:"ossMountConfig"`
}

// FuncManager manager fc function, one gpu function per model
// create function and http trigger
type FuncManager struct {
	endpoints  map[string]string
	fc3Client  *fc3.Client
	httpClient *http.Client
	lock       sync.RWMutex
	prefix     string
}

func NewFuncManager() (*FuncManager, error) {
	// init fc client
	fcEndpoint := fmt.Sprintf("%s.%s.fc.aliyuncs.com", config.ConfigGlobal.AccountId,
		config.ConfigGlobal.Region)
	client, err := fc3.NewClient(new(openapi.Config).SetAccessKeyId(config.ConfigGlobal.AccessKeyId).
		SetAccessKeySecret(config.ConfigGlobal.AccessKeySecret).SetSecurityToken(config.ConfigGlobal.AccessKeyToken).
		SetProtocol("HTTP").SetEndpoint(fcEndpoint))
	if err != nil {
		return nil, err
	}
	return &FuncManager{
		endpoints:  make(map[string]string),
		fc3Client:  client,
		httpClient: &http.Client{Timeout: readyTimeout},
		prefix:     config.ConfigGlobal.FunctionPrefix,
	}, nil
}

// GetEndpoint get endpoint, key=model
// first get from cache
// second get existing function http trigger
// third create function and return endpoint
func (f *FuncManager) GetEndpoint(model string) (string, error) {
	var err error
	endpoint := ""
	// retry
	reTry := 2
	for reTry > 0 {
		// first get cache
		if endpoint = f.getEndpointFromCache(model); endpoint != "" {
			return endpoint, nil
		}

		f.lock.Lock()
		functionName := f.GetFunctionName(model)
		// second get from fc
		if f.GetFcFunc(functionName) != nil {
			if endpoint = f.GetHttpTrigger(functionName); endpoint != "" {
				f.endpoints[model] = endpoint
				f.lock.Unlock()
				return endpoint, nil
			}
		}
		// third create function
		if endpoint, err = f.createFunc(model); endpoint != "" {
			f.lock.Unlock()
			return endpoint, nil
		}
		f.lock.Unlock()
		reTry--
		time.Sleep(RETRY_INTERVALMS)
	}
	if err == nil {
		err = fmt.Errorf("no http trigger for model %s", model)
	}
	return "", err
}

// get endpoint from cache
func (f *FuncManager) getEndpointFromCache(key string) string {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.endpoints[key]
}

// createFunc caller holds lock
func (f *FuncManager) createFunc(model string) (string, error) {
	functionName := f.GetFunctionName(model)
	endpoint, err := f.createFc3Function(functionName, getEnv(model))
	if err != nil {
		logrus.WithFields(logrus.Fields{"model": model}).Warnf("create function err=%s", err.Error())
		return "", err
	}
	// update cache
	f.endpoints[model] = endpoint
	return endpoint, nil
}

// GetFcFunc get fc function info
func (f *FuncManager) GetFcFunc(functionName string) *fc3.GetFunctionResponse {
	if resp, err := f.fc3Client.GetFunction(&functionName, &fc3.GetFunctionRequest{}); err == nil {
		return resp
	}
	return nil
}

func (f *FuncManager) GetFuncResource(functionName string) *FuncResource {
	info := f.GetFcFunc(functionName)
	if info == nil || info.Body == nil {
		return nil
	}
	res := &FuncResource{
		Env: info.Body.EnvironmentVariables,
	}
	if info.Body.CustomContainerConfig != nil && info.Body.CustomContainerConfig.Image != nil {
		res.Image = *info.Body.CustomContainerConfig.Image
	}
	if info.Body.Cpu != nil {
		res.CPU = *info.Body.Cpu
	}
	if info.Body.MemorySize != nil {
		res.MemorySize = *info.Body.MemorySize
	}
	if info.Body.Timeout != nil {
		res.Timeout = *info.Body.Timeout
	}
	if gpu := info.Body.GpuConfig; gpu != nil {
		if gpu.GpuMemorySize != nil {
			res.GpuMemorySize = *gpu.GpuMemorySize
		}
		if gpu.GpuType != nil {
			res.InstanceType = *gpu.GpuType
		}
	}
	return res
}

// GetHttpTrigger intranet url of the function http trigger
func (f *FuncManager) GetHttpTrigger(functionName string) string {
	if result, err := f.fc3Client.ListTriggers(&functionName, new(fc3.ListTriggersRequest)); err == nil {
		for _, trigger := range result.Body.Triggers {
			if trigger.HttpTrigger != nil && trigger.HttpTrigger.UrlIntranet != nil {
				return *trigger.HttpTrigger.UrlIntranet
			}
		}
	}
	return ""
}

// UpdateFunctionResource update function resource, key=model
func (f *FuncManager) UpdateFunctionResource(resources map[string]*FuncResource) ([]string, []string, []string) {
	success := make([]string, 0, len(resources))
	fail := make([]string, 0, len(resources))
	errs := make([]string, 0, len(resources))
	for key, resource := range resources {
		functionName := f.GetFunctionName(key)
		if _, err := f.fc3Client.UpdateFunction(&functionName, getFC3UpdateFunctionRequest(resource)); err != nil {
			fail = append(fail, functionName)
			errs = append(errs, err.Error())
		} else {
			success = append(success, key)
		}
	}
	return success, fail, errs
}

// DeleteFunction delete function and its trigger, key=model
func (f *FuncManager) DeleteFunction(models []string) (fails []string, errs []string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, model := range models {
		functionName := f.GetFunctionName(model)
		delete(f.endpoints, model)
		f.fc3Client.DeleteTrigger(&functionName, utils.String(config.TRIGGER_NAME))
		if _, err := f.fc3Client.DeleteFunction(&functionName); err != nil {
			logrus.Warnf("%s delete fail, err: %s", functionName, err.Error())
			fails = append(fails, functionName)
			errs = append(errs, err.Error())
		}
	}
	return
}

// WaitReady poll the sd progress api until the endpoint answers 200
func (f *FuncManager) WaitReady(endpoint string, retries int, interval time.Duration) error {
	url := fmt.Sprintf("%s%s", strings.TrimSuffix(endpoint, "/"), config.PROGRESS)
	for i := 0; i < retries; i++ {
		resp, err := f.httpClient.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			logrus.Debugf("endpoint %s status %d", endpoint, resp.StatusCode)
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("%w: %s", ErrFunctionNotReady, endpoint)
}

func (f *FuncManager) createFc3Function(functionName string,
	env map[string]*string) (endpoint string, err error) {
	createRequest := getCreateFuncRequestFc3(functionName, env)
	// create function
	if _, err := f.fc3Client.CreateFunctionWithOptions(createRequest, map[string]*string{},
		&fcService.RuntimeOptions{Autoretry: utils.Bool(true)}); err != nil {
		return "", err
	}
	// create http triggers
	resp, err := f.fc3Client.CreateTrigger(&functionName, getHttpTriggerFc3())
	if err != nil {
		return "", err
	}
	if resp.Body == nil || resp.Body.HttpTrigger == nil || resp.Body.HttpTrigger.UrlIntranet == nil {
		return "", fmt.Errorf("function %s trigger without url", functionName)
	}
	return *resp.Body.HttpTrigger.UrlIntranet, nil
}

// fc3.0 get create function request
func getCreateFuncRequestFc3(functionName string, env map[string]*string) *fc3.CreateFunctionRequest {
	input := &fc3.CreateFunctionInput{
		FunctionName:         utils.String(functionName),
		Cpu:                  utils.Float32(config.ConfigGlobal.CPU),
		Timeout:              utils.Int32(config.ConfigGlobal.Timeout),
		Runtime:              utils.String("custom-container"),
		InstanceConcurrency:  utils.Int32(config.ConfigGlobal.InstanceConcurrency),
		MemorySize:           utils.Int32(config.ConfigGlobal.MemorySize),
		DiskSize:             utils.Int32(config.ConfigGlobal.DiskSize),
		EnvironmentVariables: env,
		Handler:              utils.String("index.handler"),
		CustomContainerConfig: &fc3.CustomContainerConfig{
			AccelerationType: utils.String("Default"),
			Image:            utils.String(config.ConfigGlobal.Image),
			Port:             utils.Int32(config.ConfigGlobal.CAPort),
		},
		GpuConfig: &fc3.GPUConfig{
			GpuMemorySize: utils.Int32(config.ConfigGlobal.GpuMemorySize),
			GpuType:       utils.String(config.ConfigGlobal.InstanceType),
		},
	}
	return &fc3.CreateFunctionRequest{
		Request: input,
	}
}

// get trigger request
func getHttpTriggerFc3() *fc3.CreateTriggerRequest {
	triggerConfig := make(map[string]interface{})
	triggerConfig["authType"] = config.AUTH_TYPE
	triggerConfig["methods"] = []string{config.HTTP_GET, config.HTTP_POST, config.HTTP_PUT}
	triggerConfig["disableURLInternet"] = true
	byteConfig, _ := json.Marshal(triggerConfig)
	input := &fc3.CreateTriggerInput{
		TriggerName:   utils.String(config.TRIGGER_NAME),
		TriggerType:   utils.String(config.TRIGGER_TYPE),
		TriggerConfig: utils.String(string(byteConfig)),
	}
	return &fc3.CreateTriggerRequest{
		Request: input,
	}
}

// GetFunctionName hash key, avoid generating invalid characters
func (f *FuncManager) GetFunctionName(key string) string {
	return fmt.Sprintf("%s%s", f.prefix, utils.Hash(key))
}

func getEnv(model string) map[string]*string {
	return map[string]*string{
		"EXTRA_ARGS":   utils.String(config.ConfigGlobal.ExtraArgs),
		"STYLE_MODEL":  utils.String(model),
		"CREATE_TIME":  utils.String(fmt.Sprintf("%d", utils.TimestampS())),
		"OSS_ENDPOINT": utils.String(config.ConfigGlobal.OssEndpoint),
		"OSS_BUCKET":   utils.String(config.ConfigGlobal.Bucket),
	}
}

func getFC3UpdateFunctionRequest(resource *FuncResource) *fc3.UpdateFunctionRequest {
	req := new(fc3.UpdateFunctionInput).SetRuntime("custom-container").
		SetMemorySize(resource.MemorySize).SetCpu(resource.CPU).SetGpuConfig(new(fc3.GPUConfig).
		SetGpuType(resource.InstanceType).SetGpuMemorySize(resource.GpuMemorySize)).
		SetTimeout(resource.Timeout).SetCustomContainerConfig(new(fc3.CustomContainerConfig).
		SetImage(resource.Image)).SetEnvironmentVariables(resource.Env)
	if resource.VpcConfig != nil {
		vpcConfig := &fc3.VPCConfig{}
		if err := utils.MapToStruct(*resource.VpcConfig, vpcConfig); err == nil {
			req.SetVpcConfig(vpcConfig)
		}
	}
	if resource.NasConfig != nil {
		nasConfig := &fc3.NASConfig{}
		if err := utils.MapToStruct(*resource.NasConfig, nasConfig); err == nil {
			req.SetNasConfig(nasConfig)
		}
	}
	if resource.OssMountConfig != nil {
		ossConfig := &fc3.OSSMountConfig{}
		if err := utils.MapToStruct(*resource.OssMountConfig, ossConfig); err == nil {
			req.SetOssMountConfig(ossConfig)
		}
	}
	return new(fc3.UpdateFunctionRequest).SetRequest(req)
}
