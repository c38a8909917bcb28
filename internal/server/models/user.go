// Package models defines the server-side data models persisted in the
// database and passed between services and handlers.
package models

import "time"

// User is an account. Disabled users can authenticate but are rejected by
// every endpoint that requires an active session.
type User struct {
	ID             string
	UserName       string
	Email          string
	HashedPassword string
	Disabled       bool
	CreatedAt      time.Time
}

// Profile is a resolved session: the user plus the asthma form, if one has
// been submitted.
type Profile struct {
	User
	AsthmaData *AsthmaForm
}
