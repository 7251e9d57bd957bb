package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
service:
  name: demo-deploy
artifact:
  localPath: target/demo.jar
  remoteName: demo.jar
ssh:
  keyPath: /home/deploy/.ssh/id_ed25519
  connectTimeout: 10s
targets:
  - name: staging
    host: 10.0.0.5
    user: deploy
    deployDir: /opt/demo
    listenPort: 8070
    java:
      heapMin: 512m
      heapMax: 1024m
      gc: "+UseG1GC"
      profile: prod
verify:
  attempts: 30
  interval: 1s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jarship.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "demo-deploy", cfg.Service.Name)
	assert.Equal(t, 10*time.Second, cfg.SSH.ConnectTimeout.Std())

	require.Len(t, cfg.Targets, 1)
	target := cfg.Targets[0]
	assert.Equal(t, 22, target.SSHPort)
	assert.Equal(t, "/opt/demo/backup", target.BackupDir)
	assert.Equal(t, 8070, target.ListenPort)

	assert.Equal(t, "file", cfg.History.Store)
	assert.Equal(t, "jarship-history.yaml", cfg.History.Path)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsEmptyFile(t *testing.T) {
	_, err := Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing host", func(c *Config) { c.Targets[0].Host = "" }},
		{"missing user", func(c *Config) { c.Targets[0].User = "" }},
		{"port out of range", func(c *Config) { c.Targets[0].ListenPort = 70000 }},
		{"relative deploy dir", func(c *Config) { c.Targets[0].DeployDir = "opt/demo" }},
		{"deploy dir with spaces", func(c *Config) { c.Targets[0].DeployDir = "/opt/my app" }},
		{"no auth configured", func(c *Config) { c.SSH.KeyPath = ""; c.SSH.PasswordEnv = "" }},
		{"no targets", func(c *Config) { c.Targets = nil }},
		{"duplicate target names", func(c *Config) { c.Targets = append(c.Targets, c.Targets[0]) }},
		{"mongo store without uri", func(c *Config) { c.History.Store = "mongo"; c.History.URI = "" }},
		{"brokers without topic", func(c *Config) { c.Events.Brokers = []string{"localhost:9092"} }},
		{"unknown history store", func(c *Config) { c.History.Store = "etcd" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sampleConfig))
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestPasswordResolvedFromEnv(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Empty(t, cfg.Password())

	cfg.SSH.PasswordEnv = "JARSHIP_TEST_PASSWORD"
	t.Setenv("JARSHIP_TEST_PASSWORD", "s3cret")
	assert.Equal(t, "s3cret", cfg.Password())
}

func TestFindTarget(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	target, err := cfg.FindTarget("staging")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", target.Host)

	_, err = cfg.FindTarget("production")
	assert.Error(t, err)
}
