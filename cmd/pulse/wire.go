//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-pulse/pulse/internal/core/aggregate"
	"github.com/go-pulse/pulse/internal/core/alert"
	"github.com/go-pulse/pulse/internal/core/bootstrap"
	"github.com/go-pulse/pulse/internal/core/config"
	"github.com/go-pulse/pulse/internal/core/logic"
	"github.com/go-pulse/pulse/internal/core/nlp"
	"github.com/go-pulse/pulse/internal/core/notify"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/internal/pkg/queue"
	"github.com/go-pulse/pulse/pkg/cache"
	"github.com/go-pulse/pulse/pkg/cron"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/go-pulse/pulse/pkg/metrics"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		log.ProviderSet,
		database.ProviderSet,
		cache.ProviderSet,
		repo.ProviderSet,
		infraProviderSet,
		logicProviderSet,
		bootstrap.NewApp,
	))
}

// infraProviderSet builds the task queue, broker, and scheduler.
var infraProviderSet = wire.NewSet(
	provideQueueClient,
	provideQueueServer,
	providePublisher,
	provideScheduler,
	wire.Bind(new(queue.Enqueuer), new(*queue.Client)),
)

func provideQueueClient(conf *queue.Conf) *queue.Client {
	return queue.NewClient(conf)
}

func provideQueueServer(conf *queue.Conf) *queue.Server {
	return queue.NewServer(conf)
}

// providePublisher falls back to log-only delivery when no broker URL
// is configured.
func providePublisher(conf *notify.Conf) (notify.AlertPublisher, error) {
	if conf.URL == "" {
		return notify.NopPublisher{}, nil
	}
	return notify.NewAMQPPublisher(conf)
}

func provideScheduler() *cron.Cron {
	cron.Init(cron.WithMetricsRecorder(metrics.CronRecorder{}))
	return cron.Get()
}

// logicProviderSet builds the aggregation, alerting, tagging, and
// logic layers.
var logicProviderSet = wire.NewSet(
	aggregate.NewAggregator,
	aggregate.NewReports,
	aggregate.NewRunner,
	alert.NewEvaluator,
	alert.NewLifecycle,
	provideTagger,
	nlp.NewProcessor,
	provideTokenLogic,
	provideIntakeLogic,
	logic.NewReadLogic,
	wire.Bind(new(logic.DigestBuilder), new(*aggregate.Reports)),
	wire.Bind(new(aggregate.AlertSweeper), new(*alert.Evaluator)),
)

func provideTagger() nlp.Tagger {
	return nlp.NewLexiconTagger()
}

func provideTokenLogic(tokenRepo repo.ITokenRepository, surveyRepo repo.ISurveyRepository,
	auditRepo repo.IAuditRepository, pepper config.Pepper) *logic.TokenLogic {
	return logic.NewTokenLogic(tokenRepo, surveyRepo, auditRepo, string(pepper))
}

func provideIntakeLogic(db database.IDatabase, orgRepo repo.IOrganizationRepository,
	surveyRepo repo.ISurveyRepository, tokenRepo repo.ITokenRepository,
	responseRepo repo.IResponseRepository, commentRepo repo.ICommentRepository,
	auditRepo repo.IAuditRepository, reportsRepo repo.IReportsCacheRepository,
	enqueuer queue.Enqueuer, rdb cache.ICache, pepper config.Pepper) *logic.IntakeLogic {
	return logic.NewIntakeLogic(db, orgRepo, surveyRepo, tokenRepo, responseRepo,
		commentRepo, auditRepo, reportsRepo, enqueuer, rdb, string(pepper))
}
