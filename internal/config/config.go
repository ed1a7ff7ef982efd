/*
 * config.go, part of structset.
 *
 * Copyright 2024 The structset authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package config loads the settings of the structset command from a TOML
//file and STRUCTSET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//DefaultFile is read from the working directory when no file is given.
const DefaultFile = "structset.toml"

//Config holds all the settings.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Programs ProgramsConfig `mapstructure:"programs"`
	Mcsqs    McsqsConfig    `mapstructure:"mcsqs"`
	Label    LabelConfig    `mapstructure:"label"`
	Log      LogConfig      `mapstructure:"log"`
}

//StoreConfig selects the provenance store.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` //memory, dir or sqlite
	Path    string `mapstructure:"path"`
}

//ProgramsConfig has the commands for the external programs. Commands can
//include leading arguments ("python3 genenum.py").
type ProgramsConfig struct {
	Genenum  string `mapstructure:"genenum"`
	Gensqs   string `mapstructure:"gensqs"`
	Mcsqs    string `mapstructure:"mcsqs"`
	Corrdump string `mapstructure:"corrdump"`
	Train    string `mapstructure:"train"`
	Evaluate string `mapstructure:"evaluate"` //energy of one structure, see calc.EvaluateHandle
}

//McsqsConfig has the settings of mcsqs runs.
type McsqsConfig struct {
	Wallclock time.Duration `mapstructure:"wallclock"`
}

//LabelConfig has the settings of energy evaluation.
type LabelConfig struct {
	Workers int `mapstructure:"workers"`
}

//LogConfig has the logging settings.
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

//SetDefaults sets the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", "dir")
	v.SetDefault("store.path", "structset-store")

	v.SetDefault("programs.genenum", "genenum.py")
	v.SetDefault("programs.gensqs", "gensqs.py")
	v.SetDefault("programs.mcsqs", "mcsqs")
	v.SetDefault("programs.corrdump", "corrdump")
	v.SetDefault("programs.train", "train.py")
	v.SetDefault("programs.evaluate", "")

	v.SetDefault("mcsqs.wallclock", "30m")
	v.SetDefault("label.workers", 0) //number of CPUs

	v.SetDefault("log.json", false)
}

//New returns a viper instance with the defaults and the environment bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("STRUCTSET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

//Load reads the configuration from path. If path is empty, structset.toml in the
//working directory is read if it exists, otherwise only defaults and environment
//variables are used.
func Load(path string) (*Config, error) {
	v := New()
	file := path
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return LoadWithViper(v)
}

//LoadWithViper unmarshals and validates the configuration in v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

//Validate checks the values that can't be defaulted.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Backend) {
	case "memory", "dir", "sqlite":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend != "memory" && c.Store.Path == "" {
		return errors.New("config: store.path is required")
	}
	if c.Label.Workers < 0 {
		return fmt.Errorf("config: label.workers must not be negative, got %d", c.Label.Workers)
	}
	return nil
}
