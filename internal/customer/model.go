package customer

import "time"

// Customer owns one or more prepaid meters. Authentication is handled by an
// upstream gateway; this service only keeps the profile the dashboard needs.
type Customer struct {
	ID        int64
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
}
