package application

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/normalizer-go/pkg/config"
	"github.com/lk2023060901/normalizer-go/pkg/log"
)

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(configPathEnv, "")

	path, explicit, err := resolveConfigPath(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigPath, path)
	assert.False(t, explicit)

	t.Setenv(configPathEnv, "/etc/normalizer.yaml")
	path, explicit, err = resolveConfigPath(nil)
	require.NoError(t, err)
	assert.Equal(t, "/etc/normalizer.yaml", path)
	assert.True(t, explicit)

	path, _, err = resolveConfigPath([]string{"--config", "a.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "a.yaml", path)

	path, _, err = resolveConfigPath([]string{"-v", "--config=b.json"})
	require.NoError(t, err)
	assert.Equal(t, "b.json", path)

	_, _, err = resolveConfigPath([]string{"--config"})
	assert.ErrorContains(t, err, "missing value after --config")
}

type point struct {
	X int `normalize:"name=x"`
	Y int `normalize:"name=y"`
}

func TestInit(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Stdout = false
	cfg.Encoder.JSONFlags = []string{"prettyPrint"}
	cfg.Logging = map[string]log.Config{"serializer": {Level: "warn"}}

	app := New()
	_, err := app.Serialize(context.Background(), &point{}, "json", "")
	assert.Error(t, err)

	require.NoError(t, app.Init(cfg))
	defer app.Close()
	assert.Same(t, cfg, app.Config())
	assert.NotNil(t, app.Logger("serializer"))
	assert.NotNil(t, app.Logger("unknown"))

	out, err := app.Serialize(context.Background(), &point{X: 1, Y: 2}, "json", "")
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"x\": 1,\n    \"y\": 2\n}", string(out))
}

func TestInitInvalidEncoderConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Stdout = false
	cfg.Encoder.JSONFlags = []string{"bogus"}
	assert.Error(t, New().Init(cfg))
}

func TestCloseRestoresMaxProcs(t *testing.T) {
	before := runtime.GOMAXPROCS(0)
	cfg := config.Default()
	cfg.Log.Stdout = false

	app := New()
	require.NoError(t, app.Init(cfg))
	assert.Positive(t, runtime.GOMAXPROCS(0))

	out, err := app.Serialize(context.Background(), &point{X: 3}, "json", "")
	require.NoError(t, err)
	assert.Equal(t, `{"x":3,"y":0}`, string(out))

	app.Close()
	assert.Equal(t, before, runtime.GOMAXPROCS(0))
	// 重复 Close 是安全的
	app.Close()
}
