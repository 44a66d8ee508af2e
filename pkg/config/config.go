package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

var ConfigGlobal = DefaultConfig()

type Config struct {
	// account
	AccountId       string `yaml:"accountId"`
	AccessKeyId     string `yaml:"accessKeyId"`
	AccessKeySecret string `yaml:"accessKeySecret"`
	AccessKeyToken  string `yaml:"accessKeyToken"`
	Region          string `yaml:"region"`

	// ots
	OtsEndpoint     string `yaml:"otsEndpoint"`
	OtsInstanceName string `yaml:"otsInstanceName"`
	OtsTimeToAlive  int    `yaml:"otsTimeToAlive"` // data expired time/second
	OtsMaxVersion   int    `yaml:"otsMaxVersion"`  // data column max version nums

	// oss
	ImageStoreMode string `yaml:"imageStoreMode"` // memory|oss
	OssEndpoint    string `yaml:"ossEndpoint"`
	Bucket         string `yaml:"bucket"`
	OssPrefix      string `yaml:"ossPrefix"`
	ShareExpire    int64  `yaml:"shareExpire"` // signed url valid seconds

	// db
	DbSqlite string `yaml:"dbSqlite"`

	// session
	SessionExpire  int64 `yaml:"sessionExpire"`
	ListenInterval int32 `yaml:"listenInterval"`

	// runner
	RunnerMode       string `yaml:"runnerMode"`       // mock|remote
	MockTickMs       int64  `yaml:"mockTickMs"`       // progress tick
	MockDelayMs      int64  `yaml:"mockDelayMs"`      // fixed completion delay
	ProgressInterval int64  `yaml:"progressInterval"` // remote progress poll ms
	SdUrlPrefix      string `yaml:"sdUrlPrefix"`

	// function
	FunctionPrefix      string  `yaml:"functionPrefix"`
	Image               string  `yaml:"image"`
	CAPort              int32   `yaml:"caPort"`
	CPU                 float32 `yaml:"cpu"`
	Timeout             int32   `yaml:"timeout"`
	InstanceType        string  `yaml:"instanceType"`
	InstanceConcurrency int32   `yaml:"instanceConcurrency"`
	MemorySize          int32   `yaml:"memorySize"`
	DiskSize            int32   `yaml:"diskSize"`
	GpuMemorySize       int32   `yaml:"gpuMemorySize"`
	ExtraArgs           string  `yaml:"extraArgs"`

	// cold start throttling for function endpoints
	ColdStartConcurrency int32 `yaml:"coldStartConcurrency"`
	ModelColdStartSerial bool  `yaml:"modelColdStartSerial"`

	// server
	ApiKeyHash       string `yaml:"apiKeyHash"`
	LogRemoteService string `yaml:"logRemoteService"`
	ServerName       string `yaml:"serverName"`
}

func DefaultConfig() *Config {
	return &Config{
		DbSqlite:            ":memory:",
		ImageStoreMode:      MEMORY,
		OssEndpoint:         "oss-cn-beijing.aliyuncs.com",
		Bucket:              "style-transfer",
		OssPrefix:           "images",
		ShareExpire:         3600,
		OtsEndpoint:         "https://style-transfer.cn-beijing.ots.aliyuncs.com",
		OtsInstanceName:     "style-transfer",
		OtsMaxVersion:       1,
		OtsTimeToAlive:      -1,
		Region:              "cn-beijing",
		SessionExpire:       3600,
		ListenInterval:      1,
		RunnerMode:          MOCK,
		MockTickMs:          200,
		MockDelayMs:         3000,
		ProgressInterval:    500,
		SdUrlPrefix:         "http://localhost:7860",
		FunctionPrefix:      "style_",
		Image:               "registry.cn-beijing.aliyuncs.com/aliyun-fc/fc-stable-diffusion:anime-v2",
		CAPort:              7860,
		CPU:                 8,
		Timeout:             600,
		InstanceType:        "fc.gpu.tesla.1",
		InstanceConcurrency: 1,
		MemorySize:          32768,
		DiskSize:            512,
		GpuMemorySize:       16384,
		ServerName:          "style-transfer-api",
		AccountId:           os.Getenv(ACCOUNT_ID),
		AccessKeyId:         os.Getenv(ACCESS_KEY_ID),
		AccessKeySecret:     os.Getenv(ACCESS_KEY_SECRET),
		AccessKeyToken:      os.Getenv(ACCESS_KEY_TOKEN),

		ColdStartConcurrency: 10,
	}
}

// InitConfig load defaults, then yaml file fn (optional), then env
func InitConfig(fn string) error {
	ConfigGlobal = DefaultConfig()
	if fn != "" {
		data, err := os.ReadFile(fn)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, ConfigGlobal); err != nil {
				return err
			}
		case !os.IsNotExist(err):
			return err
		}
	}
	ConfigGlobal.loadEnv()
	return ConfigGlobal.check()
}

func (c *Config) loadEnv() {
	if v := os.Getenv(ACCOUNT_ID); v != "" {
		c.AccountId = v
	}
	if v := os.Getenv(ACCESS_KEY_ID); v != "" {
		c.AccessKeyId = v
	}
	if v := os.Getenv(ACCESS_KEY_SECRET); v != "" {
		c.AccessKeySecret = v
	}
	if v := os.Getenv(ACCESS_KEY_TOKEN); v != "" {
		c.AccessKeyToken = v
	}
	if v := os.Getenv(RUNNER_MODE); v != "" {
		c.RunnerMode = v
	}
	if v := os.Getenv(SD_URL); v != "" {
		c.SdUrlPrefix = v
	}
	if v := os.Getenv(API_KEY_HASH); v != "" {
		c.ApiKeyHash = v
	}
	if v := os.Getenv(SESSION_EXPIRE); v != "" {
		if expire, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.SessionExpire = expire
		}
	}
}

func (c *Config) check() error {
	if c.RunnerMode != MOCK && c.RunnerMode != REMOTE {
		return errors.New("runnerMode must be mock or remote")
	}
	if c.ImageStoreMode != MEMORY && c.ImageStoreMode != OSS {
		return errors.New("imageStoreMode must be memory or oss")
	}
	if c.ImageStoreMode == OSS && (c.AccessKeyId == "" || c.AccessKeySecret == "") {
		return errors.New("not set ACCESS_KEY_ID || ACCESS_KEY_SECRET, please check")
	}
	if c.MockTickMs <= 0 || c.MockDelayMs <= 0 {
		return errors.New("mockTickMs and mockDelayMs must be positive")
	}
	return nil
}

// UseOss images stored in oss bucket
func (c *Config) UseOss() bool {
	return c.ImageStoreMode == OSS
}

// UseRemoteRunner jobs delegated to a sd webui endpoint
func (c *Config) UseRemoteRunner() bool {
	return c.RunnerMode == REMOTE
}

// UseFunctionEndpoint remote endpoint resolved by function compute
func (c *Config) UseFunctionEndpoint() bool {
	return c.UseRemoteRunner() && c.SdUrlPrefix == ""
}

// EnableLogin api key required
func (c *Config) EnableLogin() bool {
	return c.ApiKeyHash != ""
}

// SendLogToRemote ship logs to remote collector
func (c *Config) SendLogToRemote() bool {
	return c.LogRemoteService != ""
}
