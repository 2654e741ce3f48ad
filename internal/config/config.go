package config

import "path/filepath"

// RunOption configures a RunConfig.
type RunOption func(*RunConfig)

// RunConfig pairs a loaded PipelineSpec with invocation-level settings that
// do not belong in the pipeline file itself: where the file lives, where
// output goes, and how chatty to be.
type RunConfig struct {
	spec      *PipelineSpec
	specDir   string
	outputDir string
	verbose   bool
}

// NewRunConfig wraps a spec with invocation options, applied in order.
func NewRunConfig(spec *PipelineSpec, opts ...RunOption) *RunConfig {
	cfg := &RunConfig{spec: spec}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithSpecDir records the directory containing the pipeline file. Relative
// dataset paths resolve against it.
func WithSpecDir(dir string) RunOption {
	return func(c *RunConfig) { c.specDir = dir }
}

// WithOutputDir overrides the output directory named in the pipeline file.
func WithOutputDir(dir string) RunOption {
	return func(c *RunConfig) { c.outputDir = dir }
}

// WithVerbose toggles detailed progress output.
func WithVerbose(verbose bool) RunOption {
	return func(c *RunConfig) { c.verbose = verbose }
}

func (c *RunConfig) Spec() *PipelineSpec { return c.spec }

func (c *RunConfig) SpecDir() string { return c.specDir }

func (c *RunConfig) Verbose() bool { return c.verbose }

// DatasetPath returns the dataset location from the spec, resolving relative
// paths against the spec directory.
func (c *RunConfig) DatasetPath() string {
	if c.spec == nil {
		return ""
	}
	p := c.spec.DatasetPath
	if p == "" || filepath.IsAbs(p) || c.specDir == "" {
		return p
	}
	return filepath.Join(c.specDir, p)
}

// OutputDir returns the invocation override when set, otherwise the spec's
// output directory.
func (c *RunConfig) OutputDir() string {
	if c.outputDir != "" {
		return c.outputDir
	}
	if c.spec == nil {
		return ""
	}
	return c.spec.Output.Dir
}
