// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides basic infrastructure to set configuration settings
// for denysc. Each setting that can be changed from outside (flags, config
// file) must be added to Config, with a "flag" tag naming the flag that sets
// it.
package config

import (
	"fmt"
	"strings"

	"gvisor.dev/denysc/pkg/log"
)

// Config holds configuration that is not part of the filter itself.
type Config struct {
	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug"`

	// DebugLog is the path to log debug information to, if not empty. It
	// may contain %TIMESTAMP% and %COMMAND%, and names a directory if it
	// ends with "/".
	DebugLog string `flag:"debug-log"`

	// DebugLogFormat is the log format for debug: text or json.
	DebugLogFormat string `flag:"debug-log-format"`

	// AlsoLogToStderr allows to send log messages to stderr.
	AlsoLogToStderr bool `flag:"alsologtostderr"`

	// ConfigFile is the TOML file flag defaults were loaded from.
	ConfigFile string `flag:"config"`
}

func (c *Config) validate() error {
	switch c.DebugLogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid debug-log-format %q, must be 'text' or 'json'", c.DebugLogFormat)
	}
	return nil
}

// Log logs important aspects of the configuration to the global logger.
func (c *Config) Log() {
	c.logTo(log.Log())
}

func (c *Config) logTo(l log.Logger) {
	l.Infof("Config.Debug: %t", c.Debug)
	l.Infof("Config.DebugLog: %q", c.DebugLog)
	l.Infof("Config.DebugLogFormat: %s", c.DebugLogFormat)
	l.Infof("Config.AlsoLogToStderr: %t", c.AlsoLogToStderr)
	if c.ConfigFile != "" {
		l.Infof("Config.ConfigFile: %q", c.ConfigFile)
	}
	if flags := c.ToFlags(); len(flags) > 0 {
		l.Infof("Config flags: %s", strings.Join(flags, " "))
	} else {
		l.Infof("Config flags: all defaults")
	}
}
