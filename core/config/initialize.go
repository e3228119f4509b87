package config

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes the default configuration into dir. An existing
// configuration is left untouched.
func Initialize(fs afero.Fs, dir string, logger *log.Logger) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, ConfigurationName)
	switch exists, err := afero.Exists(fs, path); {
	case err != nil:
		return err
	case exists:
		logger.Printf("%s already exists, skipping\n", path)
		return nil
	}

	logger.Printf("Writing %s\n", path)
	return afero.WriteFile(fs, path, defaultConfigData, 0644)
}
