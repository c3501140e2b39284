package backend

import "time"

// Session is the authenticated identity returned by the auth endpoints.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// UserProfile is the account-holder record.
type UserProfile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	AvatarKey string    `json:"avatarKey,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PortfolioItem is one image or video in a vendor's portfolio.
type PortfolioItem struct {
	Key     string `json:"key"`
	Kind    string `json:"kind"`
	Caption string `json:"caption,omitempty"`
}

// VendorProfile is the full vendor record shown on a vendor's page.
type VendorProfile struct {
	ID           string          `json:"id"`
	OwnerUserID  string          `json:"ownerUserId"`
	BusinessName string          `json:"businessName"`
	Category     string          `json:"category"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location,omitempty"`
	Portfolio    []PortfolioItem `json:"portfolio,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// VendorSummary is the directory-listing projection of a vendor.
type VendorSummary struct {
	ID           string  `json:"id"`
	BusinessName string  `json:"businessName"`
	Category     string  `json:"category"`
	Location     string  `json:"location,omitempty"`
	AvgRating    float64 `json:"avgRating"`
	RatingCount  int     `json:"ratingCount"`
}

// RatingStats is the server-computed aggregate for one vendor. The per-star
// counts and average come from backend triggers, which is why a local write
// never guesses at them.
type RatingStats struct {
	VendorID    string         `json:"vendorId"`
	AvgRating   float64        `json:"avgRating"`
	RatingCount int            `json:"ratingCount"`
	ByStars     map[string]int `json:"byStars,omitempty"`
}

// Rating is one user's rating of one vendor.
type Rating struct {
	UserID    string    `json:"userId"`
	VendorID  string    `json:"vendorId"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// BookingRequest tracks one booking enquiry between a user and a vendor.
type BookingRequest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	VendorID  string    `json:"vendorId"`
	EventDate string    `json:"eventDate"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Booking request states as the backend reports them.
const (
	BookingPending   = "pending"
	BookingAccepted  = "accepted"
	BookingDeclined  = "declined"
	BookingCancelled = "cancelled"
)

// FeatureSettings are the remotely managed feature switches.
type FeatureSettings struct {
	Flags     map[string]bool `json:"flags"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
