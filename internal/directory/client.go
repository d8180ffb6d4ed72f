// Package directory resolves client records and their owning salesperson.
// Ownership is set when the client is registered and never changes, so reads
// here need no locking against the order path.
package directory

import "time"

type Client struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Company          string    `json:"company"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	OwnerSalesperson string    `json:"owner_salesperson"`
	CreatedAt        time.Time `json:"created_at"`
}
