package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate validates the configuration and returns detailed error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	err := validate.Struct(cfg)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validation error: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, formatValidationError(e))
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	for _, lv := range []string{"NONE", "NORMAL", "INTENSIVE", "EXTREME"} {
		if _, ok := cfg.Levels.CPU.Levels[lv]; !ok {
			return fmt.Errorf("configuration validation failed:\n  - levels.cpu.levels.%s is required", lv)
		}
	}
	return nil
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	path := formatFieldPath(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", path, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", path, e.Param(), e.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port (got: %v)", path, e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", path, e.Tag(), e.Value())
	}
}

// formatFieldPath converts validator namespace to a field path without the root struct.
// Example: "Config.Farm.Addr" -> "farm.addr"
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return strings.ToLower(namespace)
	}
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return strings.Join(parts[1:], ".")
}
