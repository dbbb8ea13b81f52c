// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package rest

import (
	"fmt"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/kelseyhightower/envconfig"
)

// Server configuration, read from EXTINCTION_* environment variables
type Config struct {
	Addr        string `envconfig:"ADDR" default:":8080"`
	GinMode     string `envconfig:"GIN_MODE" default:"release"`
	MaxThreads  int    `envconfig:"MAX_THREADS" default:"0"`  // 0=GOMAXPROCS
	MaxElements int    `envconfig:"MAX_ELEMENTS" default:"0"` // per request, 0=derived from physical memory
}

// Loads the configuration from the environment
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("extinction", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return nil, fmt.Errorf("invalid gin mode '%s', expected %s, %s or %s", cfg.GinMode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = runtime.GOMAXPROCS(0)
	}
	return &cfg, nil
}
