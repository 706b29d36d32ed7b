package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
	"panic": true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks the configuration against its struct tags and reports
// every violation in a single error.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		return validLogLevels[strings.ToLower(fl.Field().String())]
	}); err != nil {
		return fmt.Errorf("register loglevel validator: %w", err)
	}
	if err := v.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		return validLogFormats[strings.ToLower(fl.Field().String())]
	}); err != nil {
		return fmt.Errorf("register logformat validator: %w", err)
	}

	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
		}
		return fmt.Errorf("validate configuration: %w", err)
	}
	return nil
}
