// Copyright 2025 Pulse Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-pulse/pulse/internal/core/aggregate"
	"github.com/go-pulse/pulse/internal/core/notify"
	"github.com/go-pulse/pulse/internal/pkg/queue"
	"github.com/go-pulse/pulse/pkg/cache"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/spf13/viper"
)

// SecurityConfig holds secrets. The server pepper is not rotatable
// without reissuing every outstanding token.
type SecurityConfig struct {
	ServerPepper string `mapstructure:"serverPepper"`
}

type AppConfig struct {
	Log       log.Conf
	Database  database.Database
	Redis     cache.Redis
	Queue     queue.Conf
	Broker    notify.Conf
	Scheduler aggregate.Cadences
	Security  SecurityConfig
}

var (
	cfg  AppConfig
	once sync.Once
)

func NewConf(confDir string) AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confDir)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
	})
	return cfg
}

// LoadConfigFile load config file
func LoadConfigFile(confDir string) (AppConfig, error) {

	config := viper.New()
	config.SetConfigFile(confDir)
	if err := config.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read configuration file: %v", err)
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("The configuration changes, re-analyze the configuration file: %s", e.Name)
		if err := config.Unmarshal(&cfg); err != nil {
			log.Errorf("failed to unmarshal configuration file: %v", err)
		}
	})
	if err := config.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal configuration file: %v", err)
	}
	if cfg.Security.ServerPepper == "" {
		return cfg, fmt.Errorf("security.serverPepper is required")
	}
	log.Infow("config file loaded",
		"path", confDir,
	)

	return cfg, nil
}
