// README: Identifier type shared by quotes and orders.
package types

import "github.com/google/uuid"

type ID string

// NewID returns a random UUID-based identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}
