// Package id defines TypeID-based identity types for escrow entities.
//
// Account-level entities (users, providers, asset modes, deposit receipts)
// use a single ID struct with a prefix that identifies the entity type. IDs
// are K-sortable (UUIDv7-based), globally unique, and URL-safe in the format
// "prefix_suffix". Sessions and provider positions are addressed by composite
// keys built from these IDs (see the session and collateral packages).
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all escrow entity types.
const (
	PrefixUser     Prefix = "user" // Escrow user (session opener, permit signer)
	PrefixProvider Prefix = "prov" // Service provider backing sessions with collateral
	PrefixMode     Prefix = "mode" // Asset mode (collateral/payment asset + parameters)
	PrefixReceipt  Prefix = "rcpt" // Deposit receipt handle minted on first collateral deposit
)

// ID is the primary identifier type for escrow account entities.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "prov_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// UserID is a type-safe identifier for users (prefix: "user").
type UserID = ID

// ProviderID is a type-safe identifier for providers (prefix: "prov").
type ProviderID = ID

// ModeID is a type-safe identifier for asset modes (prefix: "mode").
type ModeID = ID

// ReceiptID is a type-safe identifier for deposit receipts (prefix: "rcpt").
type ReceiptID = ID

// ──────────────────────────────────────────────────
// Convenience constructors and parsers
// ──────────────────────────────────────────────────

// NewUserID generates a new unique user ID.
func NewUserID() ID { return New(PrefixUser) }

// NewProviderID generates a new unique provider ID.
func NewProviderID() ID { return New(PrefixProvider) }

// NewModeID generates a new unique mode ID.
func NewModeID() ID { return New(PrefixMode) }

// NewReceiptID generates a new unique receipt ID.
func NewReceiptID() ID { return New(PrefixReceipt) }

// ParseUserID parses a string and validates the "user" prefix.
func ParseUserID(s string) (ID, error) { return ParseWithPrefix(s, PrefixUser) }

// ParseProviderID parses a string and validates the "prov" prefix.
func ParseProviderID(s string) (ID, error) { return ParseWithPrefix(s, PrefixProvider) }

// ParseModeID parses a string and validates the "mode" prefix.
func ParseModeID(s string) (ID, error) { return ParseWithPrefix(s, PrefixMode) }

// ParseReceiptID parses a string and validates the "rcpt" prefix.
func ParseReceiptID(s string) (ID, error) { return ParseWithPrefix(s, PrefixReceipt) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// Bytes returns the canonical string encoding as bytes, for use in signed
// message construction. Returns nil for the Nil ID.
func (i ID) Bytes() []byte {
	if !i.valid {
		return nil
	}

	return []byte(i.inner.String())
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
