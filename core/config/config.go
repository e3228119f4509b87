package config

import (
	_ "embed"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/josephlewis42/honeybash/core/vars"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
)

type Configuration struct {
	configFs afero.Fs

	MaxCallDepth int    `json:"max_call_depth" validate:"gte=1,lte=100000"`
	ScriptName   string `json:"script_name" validate:"required"`
	Posix        bool   `json:"posix"`
	IFS          string `json:"ifs"`
	Pid          int    `json:"pid" validate:"gte=0"`

	Options []string `json:"options" validate:"unique,dive,shell_option"`
	Shopt   []string `json:"shopt" validate:"unique,dive,shopt_option"`

	Variables map[string]string   `json:"variables" validate:"dive,keys,shell_name,endkeys"`
	Arrays    map[string][]string `json:"arrays" validate:"dive,keys,shell_name,endkeys"`
	Exported  []string            `json:"exported" validate:"unique,dive,shell_name"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	validate.RegisterValidation("shell_option", func(fl validator.FieldLevel) bool {
		_, ok := options.Lookup(fl.Field().String())
		return ok
	})
	validate.RegisterValidation("shopt_option", func(fl validator.FieldLevel) bool {
		_, err := options.New().Shopt(fl.Field().String())
		return err == nil
	})
	validate.RegisterValidation("shell_name", func(fl validator.FieldLevel) bool {
		return vars.ValidName(fl.Field().String())
	})

	return validate.Struct(c)
}

// Fs returns the filesystem the configuration was loaded from.
func (c *Configuration) Fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewOsFs()
	}
	return c.configFs
}

// NewStore creates a variable store holding the configured variables.
func (c *Configuration) NewStore() (*vars.Store, error) {
	store := vars.New()
	store.ScriptName = c.ScriptName
	if c.Pid > 0 {
		store.Pid = c.Pid
		store.BashPid = c.Pid
	}

	for name, value := range c.Variables {
		if err := store.Set(name, value); err != nil {
			return nil, err
		}
	}
	for name, values := range c.Arrays {
		if err := store.SetArray(name, values); err != nil {
			return nil, err
		}
	}
	if err := store.Set("IFS", c.IFS); err != nil {
		return nil, err
	}
	for _, name := range c.Exported {
		if err := store.Export(name); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// NewOptions creates the option state with the configured options enabled.
func (c *Configuration) NewOptions() (*options.Options, error) {
	opts := options.New()
	if c.Posix {
		opts.Enable(options.Posix, true)
	}
	for _, name := range c.Options {
		if err := opts.Set(name, true); err != nil {
			return nil, err
		}
	}
	for _, name := range c.Shopt {
		if err := opts.SetShopt(name, true); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// Default returns the built in configuration.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
