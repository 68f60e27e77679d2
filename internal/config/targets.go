package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/deploywatch/internal/domain/model"
)

// targetsFile is the on-disk shape of a batch targets file:
//
//	targets:
//	  - repo: owner/name
//	    commit: be0f1ce
//	  - repo: owner/other
//	    pr: 12
type targetsFile struct {
	Targets []targetEntry `yaml:"targets"`
}

type targetEntry struct {
	Repo   string `yaml:"repo"`
	Commit string `yaml:"commit"`
	PR     int    `yaml:"pr"`
}

// LoadTargets parses a YAML batch targets file and validates every entry.
func LoadTargets(path string) ([]model.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading targets file: %w", err)
	}

	var tf targetsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing targets file %s: %w", path, err)
	}
	if len(tf.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s lists no targets", path)
	}

	targets := make([]model.Target, 0, len(tf.Targets))
	for i, entry := range tf.Targets {
		t := model.Target{
			Repo:      entry.Repo,
			CommitSHA: entry.Commit,
			PRNumber:  entry.PR,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("targets file %s entry %d: %w", path, i+1, err)
		}
		targets = append(targets, t)
	}

	return targets, nil
}
