// Package service publishes booking domain events to RabbitMQ. Errors are
// logged and returned so callers can ignore failures without interrupting
// the request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/workshop-booking/internal/booking"
	"github.com/iliyamo/workshop-booking/internal/model"
	q "github.com/iliyamo/workshop-booking/internal/queue"
)

// Publisher sends events to the broker at url. Each publish opens its own
// connection; volumes are a handful of messages per booking.
type Publisher struct {
	url string
	now func() time.Time
}

// NewPublisher returns a Publisher for url.
func NewPublisher(url string) *Publisher { return &Publisher{url: url, now: time.Now} }

// PublishBookingConfirmed publishes to the booking.confirmed queue.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, c model.BookingConfirmation) error {
	return p.publish(ctx, q.BookingConfirmedQueue, q.BookingConfirmedEvent{
		Booking:     c,
		ConfirmedAt: p.now().UTC().Format(time.RFC3339),
	})
}

// PublishCheckoutStarted publishes to the booking.checkout_started queue.
func (p *Publisher) PublishCheckoutStarted(ctx context.Context, eventID string, customer model.CustomerData, s model.CheckoutSession) error {
	return p.publish(ctx, q.CheckoutStartedQueue, q.CheckoutStartedEvent{
		SessionID: s.SessionID,
		EventID:   eventID,
		Email:     customer.Email,
		NumSeats:  customer.NumSeats,
		StartedAt: p.now().UTC().Format(time.RFC3339),
	})
}

// CheckoutHook adapts PublishCheckoutStarted to the wizard's hook. The
// publish runs in the background with its own timeout so a slow broker
// never delays the redirect.
func (p *Publisher) CheckoutHook() booking.CheckoutStarted {
	return func(_ context.Context, eventID string, customer model.CustomerData, s model.CheckoutSession) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.PublishCheckoutStarted(ctx, eventID, customer, s); err != nil {
				log.Printf("service: checkout_started for session %s not published: %v", s.SessionID, err)
			}
		}()
	}
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish to %s failed: %v", queue, err)
		return err
	}
	return nil
}
