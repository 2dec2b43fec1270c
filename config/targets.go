package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/use-agent/sitecheck/models"
)

// targetsFile is the on-disk shape of the targets list.
type targetsFile struct {
	Targets []models.Target `yaml:"targets"`
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadTargets reads and validates the target list from a YAML file.
//
// Step values may reference credentials as ${ENV_VAR}; references are
// expanded here, and any reference to an unset or empty variable fails the
// whole load. This is the startup fail-fast: no target runs with a missing
// credential.
func LoadTargets(path string) ([]models.Target, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	var f targetsFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}
	if len(f.Targets) == 0 {
		return nil, models.NewCheckError(models.ErrCodeInvalidTarget,
			"targets file defines no targets", nil)
	}

	for ti := range f.Targets {
		t := &f.Targets[ti]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		for si := range t.Steps {
			expanded, err := expandCredentials(t.Steps[si].Value)
			if err != nil {
				return nil, models.NewCheckError(models.ErrCodeMissingCreds,
					fmt.Sprintf("target %q: step %d: %v", t.Name, si, err), nil)
			}
			t.Steps[si].Value = expanded
		}
	}

	return f.Targets, nil
}

// expandCredentials substitutes ${VAR} references from the environment.
// Unset or empty variables are an error, never silently expanded to "".
func expandCredentials(value string) (string, error) {
	var missing []string
	expanded := envRefPattern.ReplaceAllStringFunc(value, func(ref string) string {
		name := envRefPattern.FindStringSubmatch(ref)[1]
		v := os.Getenv(name)
		if v == "" {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("credential variable(s) not set: %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}
