package sessions

import "time"

// Session is a persistent refresh session. Email is carried alongside the
// subject because comment ownership is keyed on the identity-provider email.
type Session struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	RefreshToken string    `bson:"refreshToken" json:"refreshToken"`
	Sub          string    `bson:"sub" json:"sub"`
	Email        string    `bson:"email" json:"email"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
