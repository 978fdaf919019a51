package model

import "time"

// ScanRecord is a persisted analysis result owned by a user.
type ScanRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	URLHash   string    `json:"url_hash"`
	Status    Status    `json:"status"`
	RiskScore int       `json:"risk_score"`
	Threats   []string  `json:"threats"`
	CreatedAt time.Time `json:"timestamp"`
}

// UserStats aggregates a user's scan history.
type UserStats struct {
	// Safe, Warning and Dangerous count stored scans by status.
	Safe      int `json:"safe"`
	Warning   int `json:"warning"`
	Dangerous int `json:"dangerous"`
	// Total is the number of stored scans.
	Total int `json:"total"`
	// TotalScans is the running counter kept on the user row.
	TotalScans int `json:"total_scans"`
	// BackgroundScans counts scans reported by a client without storing results.
	BackgroundScans int `json:"background_scans"`
	// ProtectionActive is the user's real-time protection flag.
	ProtectionActive bool `json:"protection_active"`
}

// ThreatsBlocked returns the number of dangerous scans.
func (s UserStats) ThreatsBlocked() int {
	return s.Dangerous
}

// ScansTotal returns the number of scans to display, counting background scans.
func (s UserStats) ScansTotal() int {
	return max(s.TotalScans, s.Total+s.BackgroundScans)
}

// UserProfile is the account information kept next to the scan counters.
type UserProfile struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	TotalScans       int        `json:"total_scans"`
	ThreatsBlocked   int        `json:"threats_blocked"`
	BackgroundScans  int        `json:"background_scans"`
	ProtectionActive bool       `json:"protection_active"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	LastScan         *time.Time `json:"last_scan,omitempty"`
}

// NewUserProfile returns the default profile for a user with no stored data.
func NewUserProfile(userID string) UserProfile {
	return UserProfile{
		ID:               userID,
		ProtectionActive: true,
	}
}
