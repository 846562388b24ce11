package seed

import (
	"fmt"
	"os"

	"butterfly/internal/config"
	"butterfly/internal/models"

	"gopkg.in/yaml.v2"
)

// MenuFile is the on-disk layout of the initial menu.
type MenuFile struct {
	Items []models.MenuItem `yaml:"items"`
}

// LoadMenu reads and validates a menu seed file.
func LoadMenu(path string) ([]models.MenuItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu seed: %w", err)
	}
	return ParseMenu(data)
}

func ParseMenu(data []byte) ([]models.MenuItem, error) {
	var file MenuFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("parse menu seed: %w", err)
	}
	if err := config.ValidateMenu(file.Items); err != nil {
		return nil, err
	}
	return file.Items, nil
}
