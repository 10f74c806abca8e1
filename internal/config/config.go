// Package config defines the data structures related to configuration and
// includes functions for loading and normalizing it.
package config

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for mix-optimizer.
type Configuration struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty" mapstructure:"logging"`
	Output    OutputConfig    `yaml:"output,omitempty" mapstructure:"output"`
	Optimizer OptimizerConfig `yaml:"optimizer,omitempty" mapstructure:"optimizer"`
	Solver    SolverConfig    `yaml:"solver,omitempty" mapstructure:"solver"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// Default returns a configuration with every default applied.
func Default() *Configuration {
	conf := &Configuration{}
	conf.Normalize()
	return conf
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Keys may be overridden from the environment, e.g.
// MIXOPT_OPTIMIZER_STEPSIZE.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	v := newViper()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("error reading config data, %s", err)
		}
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("optimizer.maxIterations", constants.DefaultMaxIterations)
	v.SetDefault("optimizer.epsilon", constants.DefaultEpsilon)
	v.SetDefault("optimizer.stepSize", constants.DefaultStepSize)
	v.SetDefault("optimizer.marginalFloor", constants.DefaultMarginalFloor)
	v.SetDefault("solver.algorithm", constants.DefaultAlgorithm)
	v.SetDefault("solver.xtolRel", constants.DefaultXTolRel)
	v.SetDefault("solver.ftolRel", constants.DefaultFTolRel)
	v.SetDefault("solver.maxEvaluations", constants.DefaultMaxEvaluations)
	v.SetDefault("solver.constraintTolerance", constants.DefaultConstraintTolerance)
	v.SetDefault("solver.scaleFactor", constants.DefaultScaleFactor)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.Normalize()
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Normalize applies defaults to every section.
func (c *Configuration) Normalize() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	c.Optimizer.Normalize()
	c.Solver.Normalize()
}

// Validate returns an error when any section is unusable.
func (c *Configuration) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	return c.Solver.Validate()
}
