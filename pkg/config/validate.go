package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("plugin_id", func(fl validator.FieldLevel) bool {
		return perrors.ValidatePluginID(fl.Field().String()) == nil
	})
	v.RegisterStructValidation(validateCache, Cache{})
	return v
}

// validateCache checks that the selected remote backend has an address.
func validateCache(sl validator.StructLevel) {
	c := sl.Current().Interface().(Cache)
	switch c.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			sl.ReportError(c.Redis.Addr, "addr", "Addr", "required_for_backend", BackendRedis)
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			sl.ReportError(c.Mongo.URI, "uri", "URI", "required_for_backend", BackendMongo)
		}
	}
}

// Validate checks the configuration. The error names the first offending
// key by its path in the file, such as "experiment.trials".
func (f *File) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "validate config")
	}
	e := verrs[0]
	key := e.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch e.Tag() {
	case "required":
		return perrors.New(perrors.ErrCodeInvalidConfig, "%s is required", key)
	case "required_for_backend":
		return perrors.New(perrors.ErrCodeInvalidConfig, "%s is required by the %s cache backend", key, e.Param())
	case "gte":
		return perrors.New(perrors.ErrCodeInvalidConfig, "%s must be at least %s, got %v", key, e.Param(), e.Value())
	case "lte":
		return perrors.New(perrors.ErrCodeInvalidConfig, "%s must not exceed %s, got %v", key, e.Param(), e.Value())
	case "oneof":
		return perrors.New(perrors.ErrCodeInvalidConfig, "%s must be one of [%s], got %q", key, e.Param(), e.Value())
	case "plugin_id":
		return perrors.New(perrors.ErrCodeInvalidConfig, "%s: %q is not a valid plugin id", key, e.Value())
	default:
		return perrors.New(perrors.ErrCodeInvalidConfig, "%s: validation failed (%s)", key, e.Tag())
	}
}
