package share

import "time"

// Token maps an opaque share id to a document id. Immutable after creation;
// tokens never expire and are never revoked. Multiple tokens may point at
// the same document.
type Token struct {
	ID           string    `bson:"id" json:"id"`
	ShareID      string    `bson:"shareId" json:"shareId"`
	BRDID        string    `bson:"brdId" json:"brdId"`
	PasswordHash []byte    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
