package constants

import "time"

// Presence tracking constants.
const (
	// DefaultInactivityThreshold is the window after which a visitor no
	// longer counts as active and their presence row may be reclaimed.
	DefaultInactivityThreshold = 5 * time.Minute

	MinInactivityThreshold = 1 * time.Minute
	MaxInactivityThreshold = 24 * time.Hour
)

// Guest cookie constants.
const (
	GuestCookieName   = "sp_guest_session_id"
	GuestCookieMaxAge = 30 * 24 * time.Hour
)

// Reporting constants.
const (
	DefaultChartWindowDays = 7
	DefaultTopProductLimit = 10
	DefaultStoreRankLimit  = 5
)
