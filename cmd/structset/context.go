/*
 * context.go, part of structset.
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

package main

import (
	"strings"
	"sync"

	"github.com/rmera/structset/internal/config"
	"github.com/rmera/structset/internal/logging"
	"github.com/rmera/structset/provenance"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	verbosity  *int

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool, verbosity *int) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		verbosity:  verbosity,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

//setupLogging initializes the global logger. The --json-log flag overrides
//the log.json setting.
func (c *commandContext) setupLogging() error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	jsonOutput := cfg.Log.JSON
	if c.jsonFlag != nil && *c.jsonFlag {
		jsonOutput = true
	}
	verbosity := 0
	if c.verbosity != nil {
		verbosity = *c.verbosity
	}
	return logging.Initialize(jsonOutput, verbosity)
}

func (c *commandContext) openStore() (provenance.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := provenance.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	st.SetLogger(logging.Logger)
	return st, nil
}
