package config

import (
	"os"
	"path/filepath"
	"testing"
	"strings"
	"time"

	"chemsafe-go/pkg/log"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.LLM.StrictSchema)
	assert.Equal(t, int32(8192), cfg.LLM.Generation.MaxOutputTokens)
	assert.Equal(t, 2*time.Second, cfg.Cache.StoreTimeout)
	assert.False(t, cfg.Cache.CoalesceMisses)
	assert.Equal(t, "none", cfg.Notification.Mode)
	assert.Equal(t, int64(3), cfg.Notification.MaxAttempts)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8080"
llm:
  provider: openai
  model: gpt-4o-mini
  timeout: 30s
cache:
  coalesce_misses: true
  redis_ttl: 1h
notification:
  mode: kafka
`), 0o644))
	t.Setenv("LLM_API_KEY", "from-env")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Cache.CoalesceMisses)
	assert.Equal(t, time.Hour, cfg.Cache.RedisTTL)
	assert.Equal(t, "kafka", cfg.Notification.Mode)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log.ReplaceLogger(zap.New(core))
	t.Cleanup(func() { log.ReplaceLogger(zap.NewNop()) })

	prev := Conf
	t.Cleanup(func() { Conf = prev })
	Conf = Config{Server: ServerConfig{Port: "3000"}}

	write := fsnotify.Event{Name: "config.yaml", Op: fsnotify.Write}

	t.Run("valid change is applied", func(t *testing.T) {
		v := viper.New()
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader("server:\n  port: \"8081\"\nlog:\n  level: debug\n")))

		var got Config
		assert.True(t, reload(v, write, func(c Config) { got = c }))
		assert.Equal(t, "debug", got.Log.Level)
		assert.Equal(t, "8081", Conf.Server.Port)
	})

	t.Run("undecodable change is logged and dropped", func(t *testing.T) {
		Conf = Config{Server: ServerConfig{Port: "3000"}}
		v := viper.New()
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader("log: plain-string\n")))

		called := false
		assert.False(t, reload(v, write, func(Config) { called = true }))
		assert.False(t, called)
		assert.Equal(t, "3000", Conf.Server.Port)

		warnings := logs.FilterMessageSnippet("重新加载配置失败").All()
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0].Message, "config.yaml")
	})

	t.Run("other events are ignored", func(t *testing.T) {
		called := false
		assert.False(t, reload(viper.New(), fsnotify.Event{Name: "config.yaml", Op: fsnotify.Chmod}, func(Config) { called = true }))
		assert.False(t, called)
	})
}
