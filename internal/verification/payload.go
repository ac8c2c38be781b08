package verification

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Payload is the stored verification payload of a document. A document is
// inserted with a Pending payload and patched to Issued once its id exists.
type Payload struct {
	url string
}

// Pending is the payload of a document whose id has not been issued yet.
func Pending() Payload { return Payload{} }

// Issued wraps the verification URL of a document.
func Issued(url string) Payload { return Payload{url: url} }

// IsIssued reports whether the payload carries a verification URL.
func (p Payload) IsIssued() bool { return p.url != "" }

// URL returns the verification URL and whether it has been issued.
func (p Payload) URL() (string, bool) { return p.url, p.url != "" }

func (p Payload) String() string {
	if !p.IsIssued() {
		return "pending"
	}
	return p.url
}

// Scan implements sql.Scanner. NULL and empty strings scan as Pending.
func (p *Payload) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = Pending()
	case string:
		*p = Issued(v)
	case []byte:
		*p = Issued(string(v))
	default:
		return fmt.Errorf("failed to scan verification payload: %T", value)
	}
	return nil
}

// Value implements driver.Valuer. Pending is stored as NULL.
func (p Payload) Value() (driver.Value, error) {
	if !p.IsIssued() {
		return nil, nil
	}
	return p.url, nil
}

// GormDataType keeps the column a plain text column.
func (Payload) GormDataType() string { return "text" }

func (p Payload) MarshalJSON() ([]byte, error) {
	if !p.IsIssued() {
		return []byte("null"), nil
	}
	return json.Marshal(p.url)
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*p = Pending()
		return nil
	}
	*p = Issued(*s)
	return nil
}
