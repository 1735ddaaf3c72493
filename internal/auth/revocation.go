package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "panelkit:revoked"

// RevocationList tracks revoked token IDs in Redis. Entries expire with the
// token itself, so no pruning is needed.
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList constructs a RevocationList.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke marks a token ID as revoked until its natural expiry.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token ID appears on the list.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("auth: check revocation: %w", err)
	}
	return n > 0, nil
}

func revocationKey(tokenID string) string {
	return fmt.Sprintf("%s:%s", revocationKeyPrefix, tokenID)
}
