package models

import "time"

// User is an account record. Only the fields the conversation service reads are mapped.
type User struct {
	ID             string    `json:"id" bson:"_id"`
	Username       string    `json:"username" bson:"username"`
	Email          string    `json:"email" bson:"email"`
	FullName       string    `json:"full_name,omitempty" bson:"fullName,omitempty"`
	NativeLanguage string    `json:"native_language,omitempty" bson:"nativeLanguage,omitempty"`
	IsActive       bool      `json:"is_active" bson:"isActive"`
	IsAdmin        bool      `json:"is_admin" bson:"isAdmin"`
	CreatedAt      time.Time `json:"created_at" bson:"createdAt"`
}

// Principal is an authenticated user identity.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// ToPrincipal returns the identity of the user.
func (u *User) ToPrincipal() *Principal {
	return &Principal{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}
