// Package repository holds the MySQL access for admin accounts and the
// local copy of confirmed bookings. Sentinel errors let handlers tell a
// missing row from a failed query.
package repository

import "errors"

// ErrBookingNotFound is returned when no booking has the requested id.
// Handlers translate it into a 404.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEmailExists is returned when an account with the email already exists.
var ErrEmailExists = errors.New("email already exists")
