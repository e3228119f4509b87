package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/honeybash/core/options"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, " \t\n", cfg.IFS)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/honeybash/config.yaml", []byte(`
max_call_depth: 50
options: [errexit, nounset]
shopt: [extglob]
variables:
  GREETING: hello
arrays:
  LIST: [a, b]
`), 0644))

	for _, path := range []string{"/etc/honeybash", "/etc/honeybash/config.yaml"} {
		t.Run(path, func(t *testing.T) {
			cfg, err := Load(fs, path)
			require.NoError(t, err)

			assert.Equal(t, 50, cfg.MaxCallDepth)
			assert.Equal(t, "bash", cfg.ScriptName)
			assert.Equal(t, fs, cfg.Fs())

			store, err := cfg.NewStore()
			require.NoError(t, err)
			assert.Equal(t, "hello", store.Get("GREETING"))
			assert.Equal(t, []string{"a", "b"}, store.Values("LIST"))
			assert.Equal(t, " \t\n", store.Get("IFS"))
			assert.Contains(t, store.Environ(), "HOME=/root")

			opts, err := cfg.NewOptions()
			require.NoError(t, err)
			assert.True(t, opts.Enabled(options.Errexit))
			assert.True(t, opts.Enabled(options.Nounset))
			assert.True(t, opts.ShoptEnabled(options.Extglob))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		contents string
		field    string
	}{
		"unknown-option": {"options: [frobnicate]", "options[0]"},
		"unknown-shopt":  {"shopt: [nope]", "shopt[0]"},
		"bad-variable":   {"variables: {\"1abc\": x}", "variables[1abc]"},
		"depth":          {"max_call_depth: 0", "max_call_depth"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte(tc.contents), 0644))

			_, err := Load(fs, "config.yaml")
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), err.Error())
			assert.Equal(t, tc.field, verrs[0].Field())
		})
	}

	t.Run("unknown-field", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte("ssh_port: 22"), 0644))
		_, err := Load(fs, "config.yaml")
		assert.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Load(afero.NewMemMapFs(), "nope.yaml")
		assert.Error(t, err)
	})
}
