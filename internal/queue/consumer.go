package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/workshop-booking/internal/model"
)

// BookingStore persists confirmed bookings. *repository.BookingRepo
// satisfies it.
type BookingStore interface {
	Upsert(ctx context.Context, b model.BookingRecord) error
}

// Consumer drains the booking.confirmed queue. Each booking is stored for
// the admin view and appended to the booking log.
type Consumer struct {
	url     string
	store   BookingStore
	logPath string
	now     func() time.Time
}

// NewConsumer returns a consumer for the broker at url. store may be nil,
// in which case bookings are only written to the log file at logPath.
func NewConsumer(url string, store BookingStore, logPath string) *Consumer {
	if logPath == "" {
		logPath = filepath.Join("logs", "booking.log")
	}
	return &Consumer{url: url, store: store, logPath: logPath, now: time.Now}
}

// Run connects to RabbitMQ and consumes until ctx is done, reconnecting
// with backoff whenever the broker goes away. Bad messages are rejected
// without requeue so the loop keeps moving.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(BookingConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				log.Printf("booking-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one booking.confirmed message body.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Booking.BookingID == "" {
		return errors.New("message has no booking id")
	}
	rec := ev.Booking.Record(c.now())

	if c.store != nil {
		if err := c.store.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("store booking %s: %w", rec.BookingID, err)
		}
	}
	return c.appendLog(ev.ConfirmedAt, rec)
}

func (c *Consumer) appendLog(at string, rec model.BookingRecord) error {
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if at == "" {
		at = rec.BookingTimestamp.Format(time.RFC3339)
	}
	line := fmt.Sprintf("[%s] Booking confirmed | booking_id=%s | event_id=%s | customer=\"%s\" | email=%s | seats=%d | total=%.2f | payment=%s\n",
		at, rec.BookingID, rec.EventID, rec.CustomerName, rec.Email, int(rec.NumSeats), rec.TotalAmount, rec.PaymentStatus)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
