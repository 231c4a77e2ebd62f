package spec

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FormatFunc validates a string value against a named format. A non-nil
// error marks the value invalid.
type FormatFunc func(value string) error

// builtinFormatters returns the formats every Registry starts with.
// Register more with Registry.AddFormatter before the spec is loaded.
func builtinFormatters() map[string]FormatFunc {
	return map[string]FormatFunc{
		"uuid":      validateUUID,
		"date":      validateDate,
		"date-time": validateDateTime,
	}
}

func validateUUID(value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("not a valid UUID: %w", err)
	}
	return nil
}

func validateDate(value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("not a valid date: %w", err)
	}
	return nil
}

func validateDateTime(value string) error {
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return fmt.Errorf("not a valid date-time: %w", err)
	}
	return nil
}
