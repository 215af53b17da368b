package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/workshop-booking/internal/model"
)

// BookingRepo stores confirmed bookings copied from the booking API so
// the admin view can read them without hitting the spreadsheet. All
// timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `booking_id, event_id, customer_name, email, phone, organization, designation,
 num_seats, total_amount, stripe_payment_id, payment_status, newsletter_opt_in, promo_opt_in,
 booking_timestamp, status`

// Upsert inserts b or, when the booking id is already stored, overwrites
// the payment and status columns. Confirmation messages can be delivered
// more than once, so this must be idempotent.
func (r *BookingRepo) Upsert(ctx context.Context, b model.BookingRecord) error {
	const q = `INSERT INTO bookings (` + bookingColumns + `)
 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
 ON DUPLICATE KEY UPDATE
 stripe_payment_id = VALUES(stripe_payment_id),
 payment_status = VALUES(payment_status),
 status = VALUES(status)`
	_, err := r.db.ExecContext(ctx, q,
		b.BookingID, b.EventID, b.CustomerName, b.Email, b.Phone, b.Organization, b.Designation,
		int(b.NumSeats), b.TotalAmount, b.StripePaymentID, b.PaymentStatus, b.NewsletterOptIn, b.PromoOptIn,
		b.BookingTimestamp.UTC(), b.Status,
	)
	return err
}

// List returns every stored booking, newest first.
func (r *BookingRepo) List(ctx context.Context) ([]model.BookingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY booking_timestamp DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BookingRecord{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByID returns one booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.BookingRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBookingNotFound
	}
	return b, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (model.BookingRecord, error) {
	var (
		b     model.BookingRecord
		seats int
		org   sql.NullString
		desig sql.NullString
		payID sql.NullString
	)
	err := s.Scan(
		&b.BookingID, &b.EventID, &b.CustomerName, &b.Email, &b.Phone, &org, &desig,
		&seats, &b.TotalAmount, &payID, &b.PaymentStatus, &b.NewsletterOptIn, &b.PromoOptIn,
		&b.BookingTimestamp, &b.Status,
	)
	if err != nil {
		return b, err
	}
	b.NumSeats = model.Count(seats)
	b.Organization = org.String
	b.Designation = desig.String
	b.StripePaymentID = payID.String
	return b, nil
}
