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

// Package queue wraps the durable task queue used for asynchronous
// comment tagging. Tasks survive process restarts; handlers must be
// idempotent because delivery is at-least-once.
package queue

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-pulse/pulse/pkg/metrics"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
)

// TypeCommentTag is the task type for tagging one comment.
const TypeCommentTag = "comment:tag"

// CommentTagPayload identifies the comment to tag. The text itself is
// read from storage at processing time, never carried on the wire.
type CommentTagPayload struct {
	CommentID string `json:"comment_id"`
	OrgID     string `json:"org_id"`
}

// Enqueuer is the producer side. Intake depends on this interface so
// tests can capture enqueued tasks without a live broker.
type Enqueuer interface {
	EnqueueCommentTag(ctx context.Context, p CommentTagPayload) error
}

// Conf configures the task queue connection and worker pool.
type Conf struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	Concurrency int    `mapstructure:"concurrency"`
	MaxRetry    int    `mapstructure:"maxRetry"`
}

func (c *Conf) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

func (c *Conf) maxRetry() int {
	if c.MaxRetry <= 0 {
		return 5
	}
	return c.MaxRetry
}

func (c *Conf) concurrency() int {
	if c.Concurrency <= 0 {
		return 10
	}
	return c.Concurrency
}

// Client produces tasks.
type Client struct {
	inner *asynq.Client
	conf  *Conf
}

func NewClient(conf *Conf) *Client {
	return &Client{inner: asynq.NewClient(conf.redisOpt()), conf: conf}
}

func (c *Client) EnqueueCommentTag(ctx context.Context, p CommentTagPayload) error {
	payload, err := sonic.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal comment tag payload")
	}
	task := asynq.NewTask(TypeCommentTag, payload)
	_, err = c.inner.EnqueueContext(ctx, task,
		asynq.MaxRetry(c.conf.maxRetry()),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return errors.Wrap(err, "enqueue comment tag")
	}
	metrics.NLPTasksEnqueuedTotal.Inc()
	return nil
}

func (c *Client) Close() error {
	return c.inner.Close()
}

// Server consumes tasks. Handlers are registered before Start.
type Server struct {
	inner *asynq.Server
	mux   *asynq.ServeMux
}

func NewServer(conf *Conf) *Server {
	srv := asynq.NewServer(conf.redisOpt(), asynq.Config{
		Concurrency: conf.concurrency(),
	})
	return &Server{inner: srv, mux: asynq.NewServeMux()}
}

func (s *Server) HandleFunc(pattern string, h func(context.Context, *asynq.Task) error) {
	s.mux.HandleFunc(pattern, h)
}

func (s *Server) Start() error {
	return s.inner.Start(s.mux)
}

func (s *Server) Shutdown() {
	s.inner.Shutdown()
}
