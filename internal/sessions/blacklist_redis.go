package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// blacklistKeyPrefix namespaces revoked access tokens away from the
// session records that share the same Redis instance.
const blacklistKeyPrefix = "blacklist:access:"

// blacklistClient is the optional Redis client backing logout revocation.
var blacklistClient *redis.Client

// SetBlacklistClient configures the Redis client used for blacklist
// operations. Pass nil to disable revocation; access tokens then stay
// valid until their own expiry.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// BlacklistAccessToken revokes an access token until it would have expired
// anyway. Without a configured client this is a no-op.
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if blacklistClient == nil {
		return nil
	}
	return blacklistClient.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err()
}

// IsAccessTokenBlacklisted reports whether a token was revoked by logout.
// Without a configured client it always reports false.
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		return false, nil
	}
	exists, err := blacklistClient.Exists(ctx, blacklistKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
