package models

import (
	"strconv"
	"strings"
	"time"

	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
)

// RedactedText replaces free text owned by an anonymized subject.
const RedactedText = "[redacted]"

// Tombstone is the order reference left behind by anonymization.
func Tombstone(at time.Time) string {
	return "DELETED-" + strconv.FormatInt(at.UnixMilli(), 10)
}

// EraseMode selects how a subject is removed.
type EraseMode string

const (
	EraseAnonymize EraseMode = "anonymize"
	ErasePurge     EraseMode = "purge"
)

func ParseEraseMode(s string) (EraseMode, error) {
	switch EraseMode(strings.ToLower(strings.TrimSpace(s))) {
	case EraseAnonymize:
		return EraseAnonymize, nil
	case ErasePurge:
		return ErasePurge, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "mode must be anonymize or purge")
	}
}

// Profile is the subject identity record. The password hash is never loaded.
type Profile struct {
	ID            id.SubjectID `json:"id"`
	Email         string       `json:"email"`
	DisplayName   string       `json:"display_name"`
	EmailVerified bool         `json:"email_verified"`
	Suspended     bool         `json:"suspended"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type Listing struct {
	ID          id.ListingID `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Order struct {
	ID        id.OrderID `json:"id"`
	Reference string     `json:"reference"`
	Amount    float64    `json:"amount"`
	ItemCount int        `json:"item_count"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

type Review struct {
	ID        id.ReviewID  `json:"id"`
	ListingID id.ListingID `json:"listing_id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"created_at"`
}

type Address struct {
	ID         id.AddressID `json:"id"`
	Line1      string       `json:"line1"`
	City       string       `json:"city"`
	PostalCode string       `json:"postal_code"`
	Country    string       `json:"country"`
	CreatedAt  time.Time    `json:"created_at"`
}

type CartItem struct {
	ListingID id.ListingID `json:"listing_id"`
	Quantity  int          `json:"quantity"`
}

type Cart struct {
	ID        id.CartID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []CartItem `json:"items"`
}

// CredentialSummary is credential metadata safe to hand to the subject.
type CredentialSummary struct {
	ID          id.CredentialID `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time      `json:"last_used_at,omitempty"`
	RevokedAt   *time.Time      `json:"revoked_at,omitempty"`
}

// DataBundle is everything the platform holds about one subject.
type DataBundle struct {
	Subject     Profile             `json:"subject"`
	Listings    []Listing           `json:"listings"`
	Orders      []Order             `json:"orders"`
	Reviews     []Review            `json:"reviews"`
	Addresses   []Address           `json:"addresses"`
	Cart        *Cart               `json:"cart,omitempty"`
	Credentials []CredentialSummary `json:"credentials"`
	Consent     *ConsentPreferences `json:"consent,omitempty"`
	ExportedAt  time.Time           `json:"exported_at"`
}

// EraseCounts reports how many rows each erase step touched.
type EraseCounts struct {
	Orders      int
	Reviews     int
	Listings    int
	Addresses   int
	Carts       int
	CartItems   int
	Credentials int
}

// Details renders the counts for an audit event. Only numbers are kept.
func (c EraseCounts) Details() map[string]int {
	return map[string]int{
		"orders":              c.Orders,
		"reviews":             c.Reviews,
		"listings":            c.Listings,
		"addresses":           c.Addresses,
		"carts":               c.Carts,
		"cart_items":          c.CartItems,
		"credentials_revoked": c.Credentials,
	}
}
