package models

import (
	"time"
)

type UserProfile struct {
	Username  string    `json:"username"`
	Address   string    `json:"address"` // raw: 0:<hex>
	CreatedAt time.Time `json:"created_at"`
}
