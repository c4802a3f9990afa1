// Package events publishes transaction lifecycle messages to RabbitMQ.
//
// Publishing is strictly best-effort: the ledger treats a nil *Publisher as
// a no-op and never fails a mutation because a publish failed.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"tally/internal/core"
)

type Publisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewPublisher(url, exchangeName, queueName string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &Publisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return p, nil
}

func (p *Publisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// One queue receives every transaction.* event.
	if err := p.channel.QueueBind(p.queueName, "transaction.*", p.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionCreated announces a newly persisted transaction.
func (p *Publisher) PublishTransactionCreated(ctx context.Context, t core.Transaction) error {
	return p.publish(ctx, KeyTransactionCreated, &TransactionEvent{
		ID:        t.ID,
		Type:      t.Type,
		Amount:    t.Amount,
		Timestamp: time.Now(),
	})
}

// PublishTransactionUpdated announces an in-place replacement.
func (p *Publisher) PublishTransactionUpdated(ctx context.Context, t core.Transaction) error {
	return p.publish(ctx, KeyTransactionUpdated, &TransactionEvent{
		ID:        t.ID,
		Type:      t.Type,
		Amount:    t.Amount,
		Timestamp: time.Now(),
	})
}

// PublishTransactionDeleted announces a removal by id.
func (p *Publisher) PublishTransactionDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, KeyTransactionDeleted, &TransactionEvent{
		ID:        id,
		Timestamp: time.Now(),
	})
}

func (p *Publisher) publish(ctx context.Context, key string, event *TransactionEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		key,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = fmt.Errorf("close channel: %w", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close connection: %w", err)
		}
	}
	return firstErr
}
