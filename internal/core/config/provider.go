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
	"github.com/go-pulse/pulse/internal/core/aggregate"
	"github.com/go-pulse/pulse/internal/core/notify"
	"github.com/go-pulse/pulse/internal/pkg/queue"
	"github.com/go-pulse/pulse/pkg/cache"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/google/wire"
)

// ProviderSet provides the configuration layer dependencies.
var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideLogConfig,
	ProvideDatabaseConfig,
	ProvideRedisConfig,
	ProvideQueueConfig,
	ProvideBrokerConfig,
	ProvideCadences,
	ProvidePepper,
)

// Pepper is the server-side token hashing secret.
type Pepper string

// ProvideConf provides the application configuration.
func ProvideConf(configPath string) AppConfig {
	return NewConf(configPath)
}

// ProvideLogConfig provides the logging configuration.
func ProvideLogConfig(appConf AppConfig) *log.Conf {
	return &appConf.Log
}

// ProvideDatabaseConfig provides the database configuration.
func ProvideDatabaseConfig(appConf AppConfig) database.Database {
	return appConf.Database
}

// ProvideRedisConfig provides the Redis configuration.
func ProvideRedisConfig(appConf AppConfig) cache.Redis {
	return appConf.Redis
}

// ProvideQueueConfig provides the task queue configuration.
func ProvideQueueConfig(appConf AppConfig) *queue.Conf {
	return &appConf.Queue
}

// ProvideBrokerConfig provides the alert broker configuration.
func ProvideBrokerConfig(appConf AppConfig) *notify.Conf {
	return &appConf.Broker
}

// ProvideCadences provides the scheduler cadences.
func ProvideCadences(appConf AppConfig) aggregate.Cadences {
	return appConf.Scheduler
}

// ProvidePepper provides the token hashing pepper.
func ProvidePepper(appConf AppConfig) Pepper {
	return Pepper(appConf.Security.ServerPepper)
}
