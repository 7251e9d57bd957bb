// Package config loads and validates the deployment configuration. Secrets
// are never stored in the file: the SSH password is resolved from the
// environment variable the file names, and the key path points at a file
// readable only by the invoking user.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Service struct {
		Name string `yaml:"name"`
	} `yaml:"service"`

	Artifact struct {
		LocalPath  string `yaml:"localPath" validate:"required"`
		RemoteName string `yaml:"remoteName" validate:"required"`
	} `yaml:"artifact"`

	SSH struct {
		KeyPath        string   `yaml:"keyPath"`
		PasswordEnv    string   `yaml:"passwordEnv"` // name of env var holding the password
		KnownHostsPath string   `yaml:"knownHostsPath"`
		ConnectTimeout Duration `yaml:"connectTimeout"`
	} `yaml:"ssh"`

	Targets []Target `yaml:"targets" validate:"required,min=1,dive"`

	Stop struct {
		Grace        Duration `yaml:"grace"`
		PollInterval Duration `yaml:"pollInterval"`
	} `yaml:"stop"`

	Verify struct {
		Attempts int      `yaml:"attempts" validate:"omitempty,min=1"`
		Interval Duration `yaml:"interval"`
	} `yaml:"verify"`

	History History `yaml:"history"`

	Events struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"events"`
}

type Target struct {
	Name       string `yaml:"name" validate:"required"`
	Host       string `yaml:"host" validate:"required"`
	SSHPort    int    `yaml:"sshPort" validate:"omitempty,min=1,max=65535"`
	User       string `yaml:"user" validate:"required"`
	DeployDir  string `yaml:"deployDir" validate:"required,remotepath"`
	BackupDir  string `yaml:"backupDir" validate:"omitempty,remotepath"`
	LogFile    string `yaml:"logFile" validate:"omitempty,remotepath"`
	ListenPort int    `yaml:"listenPort" validate:"required,min=1,max=65535"`
	Java       Java   `yaml:"java"`
}

type Java struct {
	HeapMin string   `yaml:"heapMin"`
	HeapMax string   `yaml:"heapMax"`
	GC      string   `yaml:"gc"`
	Profile string   `yaml:"profile"`
	Extra   []string `yaml:"extra"`
}

type History struct {
	Store    string `yaml:"store" validate:"omitempty,oneof=file mongo"`
	Path     string `yaml:"path"`     // file store
	URI      string `yaml:"uri"`      // mongo store
	DBName   string `yaml:"dbName"`
	CollName string `yaml:"collName"`
}

// Load reads, defaults and validates a YAML config file.
func Load(path string) (*Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if len(bytes) == 0 {
		return nil, fmt.Errorf("config file %s is empty", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML in %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "jarship"
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.SSHPort == 0 {
			t.SSHPort = 22
		}
		if t.BackupDir == "" && t.DeployDir != "" {
			t.BackupDir = t.DeployDir + "/backup"
		}
	}
	if c.History.Store == "" {
		c.History.Store = "file"
	}
	if c.History.Store == "file" && c.History.Path == "" {
		c.History.Path = "jarship-history.yaml"
	}
}

// Password resolves the SSH password from the configured environment
// variable, or returns "" when none is configured.
func (c *Config) Password() string {
	if c.SSH.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.SSH.PasswordEnv)
}

// FindTarget returns the target with the given name.
func (c *Config) FindTarget(name string) (Target, error) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("no target named %q in config", name)
}
