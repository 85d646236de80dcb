package entity

import (
	"database/sql/driver"
	"fmt"

	"nutrition-intake/internal/normalizer"
)

// StringList is a list column stored as a JSON array in a text column.
// Scanning goes through the normalizer so legacy comma separated rows and
// double encoded JSON strings load as the same canonical list.
type StringList []string

// Value returns json value, implement driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	return normalizer.Encode(l), nil
}

// Scan implements sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = StringList{}
	case []byte:
		*l = normalizer.Parse(string(v))
	case string:
		*l = normalizer.Parse(v)
	default:
		return fmt.Errorf("failed to scan StringList value: %v", value)
	}
	return nil
}
