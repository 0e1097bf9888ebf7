package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

func NewRabbitPublisher(url string, logger *slog.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("NewRabbitPublisher: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("NewRabbitPublisher: channel: %w", err)
	}
	if err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("NewRabbitPublisher: %w", err)
	}

	return &RabbitPublisher{conn: conn, channel: ch, logger: logger}, nil
}

func declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// Publish retries once on a fresh channel, since a channel error closes the
// channel for good.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("Publish: marshal: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.Warn("publish failed, reopening channel", "routing_key", routingKey, "error", err)
	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return fmt.Errorf("Publish: reopen channel: %w", chErr)
	}
	if err := declare(ch); err != nil {
		ch.Close()
		return fmt.Errorf("Publish: %w", err)
	}
	p.channel = ch

	if err := p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// NopPublisher drops events. It stands in when no broker is configured or
// the broker is unreachable at startup.
type NopPublisher struct {
	Logger *slog.Logger
}

func (p NopPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	if p.Logger != nil {
		p.Logger.Debug("event publish skipped", "routing_key", routingKey)
	}
	return nil
}

func (NopPublisher) Close() {}
