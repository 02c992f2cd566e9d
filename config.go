package kom

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/structology/conv"
	"gopkg.in/yaml.v3"

	"github.com/viant/kom/async"
	"github.com/viant/kom/async/dispatch"
	"github.com/viant/kom/async/workitem"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from YAML, JSON, environment-driven templating, etc. The
// zero-value is not useful on its own; start from DefaultConfig and override.
type Config struct {
	// Hardening turns reference-count contract violations into fatal aborts.
	Hardening bool `json:"hardening" yaml:"hardening"`
	// Budgets optionally overrides the poll-budget profile, e.g.
	// "interactive:16,default:64,batch:256".
	Budgets  string          `json:"budgets" yaml:"budgets"`
	Dispatch dispatch.Config `json:"dispatch" yaml:"dispatch"`
	WorkItem workitem.Config `json:"workItem" yaml:"workItem"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Hardening: true,
		Dispatch:  dispatch.DefaultConfig(),
		WorkItem:  workitem.DefaultConfig(),
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if err := c.WorkItem.Validate(); err != nil {
		return err
	}
	if _, err := async.ParseBudgets(c.Budgets); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads a YAML configuration from URL over the package defaults.
// Any scheme the file-system abstraction supports works: file paths, s3://,
// gs://, mem://.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	return config, config.Validate()
}

// NewConfigFromMap builds a Config from a generic map, e.g. one produced by
// a host's own configuration layer. Settings absent from the map keep their
// defaults.
func NewConfigFromMap(settings map[string]interface{}) (*Config, error) {
	config := DefaultConfig()
	converter := conv.NewConverter(conv.DefaultOptions())
	if err := converter.Convert(settings, config); err != nil {
		return nil, err
	}
	return config, config.Validate()
}
