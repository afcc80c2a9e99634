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

// Package bootstrap assembles the measurement core: storage, cache,
// queue, broker, scheduler, and the logic layer on top of them. The
// wire injector in cmd/pulse builds App through NewApp.
package bootstrap

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/go-pulse/pulse/internal/core/aggregate"
	"github.com/go-pulse/pulse/internal/core/alert"
	"github.com/go-pulse/pulse/internal/core/config"
	"github.com/go-pulse/pulse/internal/core/logic"
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/nlp"
	"github.com/go-pulse/pulse/internal/core/notify"
	"github.com/go-pulse/pulse/internal/pkg/queue"
	"github.com/go-pulse/pulse/pkg/cache"
	"github.com/go-pulse/pulse/pkg/cron"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/go-pulse/pulse/pkg/metrics"
	"github.com/go-pulse/pulse/pkg/shutdown"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// App is the assembled measurement core.
type App struct {
	Conf        config.AppConfig
	Logger      *log.Logger
	DB          database.IDatabase
	Cache       cache.ICache
	QueueClient *queue.Client
	QueueServer *queue.Server
	Publisher   notify.AlertPublisher
	Scheduler   *cron.Cron

	Token  *logic.TokenLogic
	Intake *logic.IntakeLogic
	Read   *logic.ReadLogic
	Alerts *alert.Lifecycle

	shutdown *shutdown.Manager
}

// NewApp finishes assembly: migrates the schema, registers collectors,
// the tagging handler, and the scheduled jobs. The returned cleanup
// releases external connections.
func NewApp(
	appConf config.AppConfig,
	logger *log.Logger,
	db database.IDatabase,
	redisClient *redis.Client,
	rdb cache.ICache,
	queueClient *queue.Client,
	queueServer *queue.Server,
	publisher notify.AlertPublisher,
	scheduler *cron.Cron,
	token *logic.TokenLogic,
	intake *logic.IntakeLogic,
	read *logic.ReadLogic,
	alerts *alert.Lifecycle,
	processor *nlp.Processor,
	runner *aggregate.Runner,
) (*App, func(), error) {
	metrics.MustRegister()

	if err := model.AutoMigrate(db.Database()); err != nil {
		return nil, nil, errors.Wrap(err, "migrate schema")
	}

	queueServer.HandleFunc(queue.TypeCommentTag, processor.HandleCommentTag)
	if err := runner.Register(scheduler); err != nil {
		return nil, nil, errors.Wrap(err, "register jobs")
	}

	app := &App{
		Conf:        appConf,
		Logger:      logger,
		DB:          db,
		Cache:       rdb,
		QueueClient: queueClient,
		QueueServer: queueServer,
		Publisher:   publisher,
		Scheduler:   scheduler,
		Token:       token,
		Intake:      intake,
		Read:        read,
		Alerts:      alerts,
		shutdown:    shutdown.NewManager(),
	}
	cleanup := func() {
		if err := queueClient.Close(); err != nil {
			log.Errorf("queue client close error: %v", err)
		}
		if err := publisher.Close(); err != nil {
			log.Errorf("alert broker close error: %v", err)
		}
		if err := redisClient.Close(); err != nil {
			log.Errorf("redis close error: %v", err)
		}
	}
	return app, cleanup, nil
}

// Run starts the background workers and blocks until an exit signal,
// then shuts down gracefully.
func Run(app *App, cleanup func()) {
	if err := app.QueueServer.Start(); err != nil {
		log.Fatalf("task queue server failed: %v", err)
	}
	cron.Start()
	log.Infow("measurement core started",
		"jobs", len(cron.Entries()),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-quit
		log.Infof("received signal: %v, shutting down gracefully...", sig)
		app.shutdown.Shutdown()
	}()
	<-app.shutdown.Wait()

	// Stop intake of new work first, then wait on in-flight runs.
	cron.Stop()
	app.QueueServer.Shutdown()
	cleanup()
	log.Info("shutdown complete")
}
