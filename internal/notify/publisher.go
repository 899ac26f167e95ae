package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Chrono/internal/domain"
)

// Топология уведомлений.
const (
	// ExchangeEvents — exchange для событий срабатывания.
	ExchangeEvents = "chrono.events"

	// RoutingKeyFired — ключ маршрутизации срабатываний.
	RoutingKeyFired = "fired"

	// MessageTypeEventFired — тип сообщения о срабатывании.
	MessageTypeEventFired = "event.fired"
)

// Publisher публикует сообщения о срабатываниях в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher и объявляет exchange.
func NewPublisher(conn *Connection, logger *slog.Logger) (*Publisher, error) {
	err := conn.WithChannel(func(ch *amqp.Channel) error {
		return ch.ExchangeDeclare(
			ExchangeEvents, // name
			"direct",       // type
			true,           // durable
			false,          // auto-deleted
			false,          // internal
			false,          // no-wait
			nil,            // arguments
		)
	})
	if err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
	}

	return &Publisher{conn: conn, logger: logger}, nil
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type string `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// EventFiredPayload — payload сообщения о срабатывании.
type EventFiredPayload struct {
	ExecutionID string    `json:"execution_id"`
	Module      string    `json:"module"`
	Func        string    `json:"func"`
	FiredAt     time.Time `json:"fired_at"`
}

// EventFired публикует событие о запущенном выполнении.
func (p *Publisher) EventFired(ctx context.Context, inv *domain.Invocation) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeEventFired,
		Payload: EventFiredPayload{
			ExecutionID: inv.ExecutionID,
			Module:      inv.Module,
			Func:        inv.Func,
			FiredAt:     inv.FiredAt,
		},
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			ExchangeEvents,  // exchange
			RoutingKeyFired, // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", ExchangeEvents, RoutingKeyFired, err)
		}

		p.logger.Debug("published message",
			"exchange", ExchangeEvents,
			"routing_key", RoutingKeyFired,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}
