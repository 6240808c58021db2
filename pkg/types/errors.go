// Package types holds small types shared across sitecheck subsystems.
package types

import "fmt"

// ErrEmpty indicates a required field was empty when a model was constructed
// or read back from a database.
type ErrEmpty struct {
	Field string
}

func (e ErrEmpty) Error() string {
	return fmt.Sprintf("%s cannot be empty", e.Field)
}
