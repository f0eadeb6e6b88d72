package protocol

import "time"

// Default TTLs by message type.
var defaultTTLs = map[string]time.Duration{
	TypeOrderApproved:   24 * time.Hour,
	TypeOrderWithdrawn:  24 * time.Hour,
	TypeProductionEvent: 10 * time.Minute,
}

// FallbackTTL is used when no specific TTL is configured.
const FallbackTTL = 10 * time.Minute

// DefaultTTLFor returns the default TTL for a message type.
func DefaultTTLFor(msgType string) time.Duration {
	if ttl, ok := defaultTTLs[msgType]; ok {
		return ttl
	}
	return FallbackTTL
}

// IsExpired returns true if the envelope has passed its expiry time.
func IsExpired(env *Envelope) bool {
	return expired(env.ExpiresAt)
}

// IsExpiredHeader checks expiry using only the raw header.
func IsExpiredHeader(hdr *RawHeader) bool {
	return expired(hdr.ExpiresAt)
}

func expired(at time.Time) bool {
	return !at.IsZero() && time.Now().UTC().After(at)
}
