package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// PaymentLog is an append-only audit record of a charge webhook. It doubles as
// the renewal dedup oracle: a payload already logged for a subscription is a
// duplicate delivery.
type PaymentLog struct {
	Id             uint
	SubscriptionId uint
	CreatedAt      time.Time
	Data           []byte
	DataHash       string
}

// HashPayload is the dedup key component for a raw provider payload. Equality
// is byte-level: a re-serialized but semantically identical payload hashes
// differently and is not detected as a duplicate.
func HashPayload(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
