// Package events announces stored points to other systems.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	applog "ecoleta/internal/log"
)

const TopicPointCreated = "point.created"

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

// New returns an AMQP publisher when url is set and a log-only one otherwise.
func New(url string) (Publisher, error) {
	if url == "" {
		return LogPublisher{}, nil
	}
	p, err := DialAMQP(url)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// LogPublisher writes events to the structured log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, topic string, payload any) error {
	applog.Info(nil, "event."+topic, map[string]any{"payload": payload})
	return nil
}

func (LogPublisher) Close() error { return nil }

// amqpChannel is the part of *amqp.Channel the publisher needs.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       amqpChannel
	declared map[string]bool
}

func DialAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return &AMQP{conn: conn, ch: ch, declared: map[string]bool{}}, nil
}

// Publish sends payload as JSON to a durable queue named after topic.
func (p *AMQP) Publish(_ context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[topic] {
		if _, err := p.ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", topic, err)
		}
		p.declared[topic] = true
	}
	return p.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
