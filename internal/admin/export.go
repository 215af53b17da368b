package admin

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/iliyamo/workshop-booking/internal/model"
)

var csvHeader = []string{
	"Booking ID",
	"Event ID",
	"Customer Name",
	"Email",
	"Phone",
	"Organization",
	"Designation",
	"Seats",
	"Amount (NZD)",
	"Payment ID",
	"Payment Status",
	"Newsletter",
	"Promo",
	"Booking Date",
	"Status",
}

const csvDateLayout = "2006-01-02 15:04:05"

// ExportCSV writes bookings with a header row. Fields are quoted as
// needed by encoding/csv.
func ExportCSV(w io.Writer, bookings []model.BookingRecord) error {
	if len(bookings) == 0 {
		return ErrNoBookings
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bookings {
		date := ""
		if !b.BookingTimestamp.IsZero() {
			date = b.BookingTimestamp.UTC().Format(csvDateLayout)
		}
		row := []string{
			b.BookingID,
			b.EventID,
			b.CustomerName,
			b.Email,
			b.Phone,
			b.Organization,
			b.Designation,
			strconv.Itoa(int(b.NumSeats)),
			strconv.FormatFloat(b.TotalAmount, 'f', -1, 64),
			b.StripePaymentID,
			b.PaymentStatus,
			b.NewsletterOptIn,
			b.PromoOptIn,
			date,
			b.Status,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename is the download name for an export made at now.
func ExportFilename(now time.Time) string {
	return "workshop-bookings-" + now.Format("2006-01-02") + ".csv"
}
