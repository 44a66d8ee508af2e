package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigDefault(t *testing.T) {
	err := InitConfig("")
	require.NoError(t, err)
	assert.Equal(t, MOCK, ConfigGlobal.RunnerMode)
	assert.Equal(t, int64(200), ConfigGlobal.MockTickMs)
	assert.Equal(t, int64(3000), ConfigGlobal.MockDelayMs)
	assert.Equal(t, ":memory:", ConfigGlobal.DbSqlite)
	assert.False(t, ConfigGlobal.UseOss())
	assert.False(t, ConfigGlobal.EnableLogin())
}

func TestInitConfigYaml(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "config.yaml")
	body := "runnerMode: remote\nsdUrlPrefix: http://sd:7860\nmockTickMs: 10\nsessionExpire: 60\n"
	require.NoError(t, os.WriteFile(fn, []byte(body), 0644))

	err := InitConfig(fn)
	require.NoError(t, err)
	assert.True(t, ConfigGlobal.UseRemoteRunner())
	assert.False(t, ConfigGlobal.UseFunctionEndpoint())
	assert.Equal(t, "http://sd:7860", ConfigGlobal.SdUrlPrefix)
	assert.Equal(t, int64(10), ConfigGlobal.MockTickMs)
	assert.Equal(t, int64(60), ConfigGlobal.SessionExpire)
	// untouched keys keep defaults
	assert.Equal(t, int64(3000), ConfigGlobal.MockDelayMs)
}

func TestInitConfigMissingFile(t *testing.T) {
	err := InitConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
}

func TestInitConfigEnv(t *testing.T) {
	t.Setenv(RUNNER_MODE, "remote")
	t.Setenv(SD_URL, "")
	t.Setenv(SESSION_EXPIRE, "120")
	err := InitConfig("")
	require.NoError(t, err)
	assert.Equal(t, REMOTE, ConfigGlobal.RunnerMode)
	assert.Equal(t, int64(120), ConfigGlobal.SessionExpire)
}

func TestInitConfigInvalid(t *testing.T) {
	t.Setenv(RUNNER_MODE, "gpu")
	assert.Error(t, InitConfig(""))

	t.Setenv(RUNNER_MODE, "")
	fn := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("imageStoreMode: oss\naccessKeyId: \"\"\n"), 0644))
	t.Setenv(ACCESS_KEY_ID, "")
	assert.Error(t, InitConfig(fn))
}
