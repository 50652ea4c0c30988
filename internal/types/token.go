package types

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Subscription tiers carried in token claims. Billing happens outside
// this system; the tier is trusted from the signed token.
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID           uuid.UUID `json:"user_id"`
	Email            string    `json:"email"`
	SubscriptionTier string    `json:"subscription_tier"`
}

// IsPremium reports whether the token grants premium features
func (c *TokenClaims) IsPremium() bool {
	return c.SubscriptionTier == TierPremium
}
