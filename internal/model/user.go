// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, plain values with no behaviour
// attached beyond what the JSON tags describe.
package model

// User represents a registered account.
//
// WHY HashedPassword WITH json:"-"?
// The bcrypt hash lives in the same struct we persist and load, but it must
// never appear in an API response. The `json:"-"` tag makes encoding/json
// skip the field entirely, so no handler can leak it by accident.
//
// The ID is an integer at rest (serial primary key in postgres). Where the
// API contract wants string identifiers, the handler layer formats them,
// the model stays true to the storage representation.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	HashedPassword string `json:"-"`
}
