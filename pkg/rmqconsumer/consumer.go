package rmqconsumer

import (
	"context"
	"fmt"
	"sort"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"users-svc/config"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

// Consumer is an audit tap on the lifecycle queue: every delivery is logged
// under the action name its routing key maps to.
type Consumer struct {
	cfg        config.MQ
	log        *zap.Logger
	actions    map[string]string
	conn       *amqp091.Connection
	ownConn    bool
	chConsume  *amqp091.Channel
	chDelivery <-chan amqp091.Delivery
}

// New takes routing key -> action name. A non-nil conn is shared with the
// publisher instead of dialing a second connection.
func New(cfg config.MQ, logger *zap.Logger, conn *amqp091.Connection, actions map[string]string) *Consumer {
	return &Consumer{
		cfg:     cfg,
		log:     logger,
		actions: actions,
		conn:    conn,
	}
}

func (c *Consumer) Connect(dsn string) error {
	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp091.Dial(dsn)
		if err != nil {
			return fmt.Errorf("amqp dial: %w", err)
		}
		c.conn, c.ownConn = conn, true
	}

	ch, err := c.conn.Channel()
	if err != nil {
		if c.ownConn {
			_ = c.conn.Close()
			c.conn = nil
		}
		return fmt.Errorf("amqp channel: %w", err)
	}
	c.chConsume = ch

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) routingKeys() []string {
	keys := make([]string, 0, len(c.actions))
	for rk := range c.actions {
		keys = append(keys, rk)
	}
	sort.Strings(keys)
	return keys
}

func (c *Consumer) Init() error {
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range c.routingKeys() {
		if err := c.chConsume.QueueBind(
			c.cfg.QueueName,
			rk,
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	c.chDelivery = deliveries

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}
			if err := c.delivery(msg); err != nil {
				// alert
				c.log.Error("mq read message error", zap.Error(err))
			}
		case <-ctx.Done():
			_ = c.chConsume.Close()
			return
		}
	}
}

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	action, ok := c.actions[msg.RoutingKey]
	if !ok {
		return fmt.Errorf("unknown routing key %q", msg.RoutingKey)
	}

	c.log.Info("lifecycle event",
		zap.String("action", action),
		zap.String("message_id", msg.MessageId),
		zap.ByteString("event_body", msg.Body),
	)

	return nil
}
