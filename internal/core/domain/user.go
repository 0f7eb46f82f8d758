package domain

import (
	"time"

	"github.com/google/uuid"
)

// User carries only the identity and external payment references the
// transaction core needs. Profile data lives elsewhere.
type User struct {
	ID                  uuid.UUID
	Email               string
	GatewayCustomerRef  string
	ConnectedAccountRef string
	CreatedAt           time.Time
}
