package models

import "time"

// DefaultConsentTTL is how long recorded preferences stay valid.
const DefaultConsentTTL = 365 * 24 * time.Hour

// ConsentPreferences are a subject's optional processing choices. Necessary
// processing is always on.
type ConsentPreferences struct {
	Necessary    bool      `json:"necessary"`
	Analytics    bool      `json:"analytics"`
	Marketing    bool      `json:"marketing"`
	Cookies      bool      `json:"cookies"`
	ConsentSetAt time.Time `json:"consent_set_at"`
}

// ConsentUpdate is the subject's input; Necessary is not negotiable.
type ConsentUpdate struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
	Cookies   bool `json:"cookies"`
}

// IsConsentRequired reports whether the subject must be asked again: no
// preferences recorded, or recorded more than ttl ago.
func IsConsentRequired(c *ConsentPreferences, now time.Time, ttl time.Duration) bool {
	if c == nil {
		return true
	}
	return now.Sub(c.ConsentSetAt) > ttl
}

// ConsentStatus is what the consent endpoint returns.
type ConsentStatus struct {
	Preferences *ConsentPreferences `json:"preferences,omitempty"`
	Required    bool                `json:"required"`
}
