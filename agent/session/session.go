// Package session binds a caller, a call session and a restaurant
// phone number together for the duration of one phone call.
package session

import "time"

// Session is the per-call conversational context. It carries the call
// session id and the restaurant phone so tool operations never have to
// ask the caller for either.
type Session struct {
	ID              string
	UserID          string
	RestaurantPhone string
	CreatedAt       time.Time
	LastSeenAt      time.Time
}
