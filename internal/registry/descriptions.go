package registry

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DescriptionsFile holds listing blurbs keyed by chapter slug.
const DescriptionsFile = "descriptions.yaml"

// LoadDescriptions reads a slug → description YAML map. A missing file
// yields an empty map.
func LoadDescriptions(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read descriptions: %w", err)
	}

	out := map[string]string{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse descriptions: %w", err)
	}
	return out, nil
}
