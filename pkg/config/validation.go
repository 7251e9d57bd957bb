package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	validate = validator.New()

	// Register custom validations
	_ = validate.RegisterValidation("remotepath", validateRemotePath)
}

// validateRemotePath requires an absolute path with no shell-hostile
// whitespace; everything remote is interpolated into shell commands.
func validateRemotePath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if !strings.HasPrefix(p, "/") {
		return false
	}
	return !strings.ContainsAny(p, " \t\n")
}

// Validate checks a loaded config against the struct tags and cross-field
// rules the tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.SSH.KeyPath == "" && cfg.SSH.PasswordEnv == "" {
		return fmt.Errorf("ssh: either keyPath or passwordEnv must be set")
	}
	if cfg.History.Store == "mongo" && cfg.History.URI == "" {
		return fmt.Errorf("history: mongo store requires uri")
	}
	if len(cfg.Events.Brokers) > 0 && cfg.Events.Topic == "" {
		return fmt.Errorf("events: brokers configured without a topic")
	}

	seen := make(map[string]bool, len(cfg.Targets))
	for _, t := range cfg.Targets {
		if seen[t.Name] {
			return fmt.Errorf("duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}
