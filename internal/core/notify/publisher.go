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

// Package notify publishes alert events for external delivery channels.
// Routing is per org on the alerts.<org_id> key; consumers bind the
// patterns they care about.
package notify

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AlertPublisher emits one event per opened or upgraded alert.
type AlertPublisher interface {
	Publish(ctx context.Context, orgID string, event *model.AlertEvent) error
	Close() error
}

// Conf configures the broker connection.
type Conf struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

func (c *Conf) exchange() string {
	if c.Exchange == "" {
		return "pulse.alerts"
	}
	return c.Exchange
}

// AMQPPublisher publishes alert events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

func NewAMQPPublisher(conf *Conf) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "dial broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	exchange := conf.exchange()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, orgID string, event *model.AlertEvent) error {
	body, err := sonic.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal alert event")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, "alerts."+orgID, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.AlertID,
		Body:         body,
	})
	return errors.Wrapf(err, "publish alert %s", event.AlertID)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NopPublisher logs events instead of publishing. Used when no broker
// is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, orgID string, event *model.AlertEvent) error {
	log.Infow("alert event (no broker configured)",
		"orgId", orgID, "alertId", event.AlertID, "type", event.Type, "severity", event.Severity)
	return nil
}

func (NopPublisher) Close() error { return nil }
