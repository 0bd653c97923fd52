package domain

// Represents a client record owned by a user account.
// A Client is created on import or manual add and soft-deleted by flipping
// IsActive. Opening hours are "HH:MM" time-of-day strings; empty values fall
// back to the default visiting window during timeline construction.
type Client struct {
	ClientID    int64
	UserID      string
	Name        string
	Address     string
	Position    Coordinates
	OpeningTime string
	ClosingTime string
	IsActive    bool
}
