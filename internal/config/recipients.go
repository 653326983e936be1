package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Recipients is the notification routing table
//
//	base:
//	  - sam@example.com
//	prefixes:
//	  KS: [ks-team@example.com]
type Recipients struct {
	Base     []string            `yaml:"base"`
	Prefixes map[string][]string `yaml:"prefixes"`
}

// LoadRecipients reads the routing table from path and merges extraBase into the base list.
// An empty path yields a table holding only extraBase.
func LoadRecipients(path string, extraBase []string) (Recipients, error) {
	var r Recipients
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Recipients{}, fmt.Errorf("failed to read recipients file: %w", err)
		}
		if err := yaml.Unmarshal(data, &r); err != nil {
			return Recipients{}, fmt.Errorf("failed to parse recipients file: %w", err)
		}
	}
	r.Base = append(r.Base, extraBase...)
	if r.Prefixes == nil {
		r.Prefixes = map[string][]string{}
	}
	return r, nil
}
