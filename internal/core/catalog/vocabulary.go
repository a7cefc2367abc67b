package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultScienceTypes are the configuration types kept by exclude_calibrations
// when no vocabulary file is configured.
var DefaultScienceTypes = []string{"EXPOSE", "SPECTRUM", "STANDARD", "TRAILED"}

// scienceTypesFile is the on-disk YAML shape for the vocabulary file.
type scienceTypesFile struct {
	ScienceConfigurationTypes []string `yaml:"science_configuration_types"`
}

// LoadScienceTypes reads the science configuration-type vocabulary from a YAML
// file. An empty path returns the built-in default list; a configured path
// must exist and name at least one known observation type.
func LoadScienceTypes(path string) ([]string, error) {
	if path == "" {
		return DefaultScienceTypes, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("science types file: %w", err)
	}

	var parsed scienceTypesFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("science types file %q: %w", path, err)
	}
	if len(parsed.ScienceConfigurationTypes) == 0 {
		return nil, fmt.Errorf("science types file %q lists no configuration types", path)
	}

	known := make(map[string]struct{}, len(ObservationTypes))
	for _, t := range ObservationTypes {
		known[t] = struct{}{}
	}
	for _, t := range parsed.ScienceConfigurationTypes {
		if _, ok := known[t]; !ok {
			return nil, fmt.Errorf("science types file %q: unknown configuration type %q", path, t)
		}
	}

	return parsed.ScienceConfigurationTypes, nil
}
