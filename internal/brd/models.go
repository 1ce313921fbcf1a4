package brd

import "time"

// BRD is the generated Business Requirements Document. There is no owner
// field: any authenticated user may rewrite it, and documents are never
// deleted by the service.
type BRD struct {
	ID          string    `bson:"id" json:"id"`
	ProductName string    `bson:"productName" json:"productName"`
	Goals       string    `bson:"goals" json:"goals"`
	Features    string    `bson:"features,omitempty" json:"features,omitempty"`
	Content     string    `bson:"content" json:"content"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Comment belongs to exactly one BRD. CreatedBy is the identity-provider
// email of the author; edits and deletes are restricted to that identity.
type Comment struct {
	ID        string    `bson:"id" json:"id"`
	BRDID     string    `bson:"brdId" json:"brdId"`
	Content   string    `bson:"content" json:"content"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// UserStory belongs to exactly one BRD. Any signed-in user may edit or
// delete any story.
type UserStory struct {
	ID        string    `bson:"id" json:"id"`
	BRDID     string    `bson:"brdId" json:"brdId"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// UpdateBRD carries a full-document overwrite: every editable field is
// rewritten on save, none are patched individually.
type UpdateBRD struct {
	ProductName string `json:"productName"`
	Goals       string `json:"goals"`
	Features    string `json:"features"`
	Content     string `json:"content"`
}
