package utils

import (
	"fmt"
)

// NewUnknownEnumPanic formats the message used when an enumerator the caller does not recognize
// reaches a switch. It indicates a broken invariant, so callers panic with it rather than return it.
func NewUnknownEnumPanic(kind string, value interface{}) string {
	return fmt.Sprintf("unknown %s value %v", kind, value)
}
