package timezone

import (
	"fmt"
	"time"
)

const Default = "UTC"

// Validate checks that name is a usable IANA timezone identifier.
// Empty and "Local" are rejected: stored zones must be explicit so the
// meaning of a record does not depend on where the server runs.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("timezone is required")
	}
	if name == "Local" {
		return fmt.Errorf("timezone %q is not allowed", name)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown timezone %q", name)
	}
	return nil
}
