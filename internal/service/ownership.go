package service

import (
	"fmt"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
)

// Owned is a resource that belongs to exactly one user.
type Owned interface {
	comparable
	OwnerID() int64
}

// CheckOwnership returns resource if userID owns it. A zero resource is
// reported as not found before ownership is considered.
func CheckOwnership[R Owned](resource R, userID int64, name string) (R, error) {
	var none R
	if resource == none {
		return none, fmt.Errorf("%s %w", name, domain.ErrNotFound)
	}
	if resource.OwnerID() != userID {
		return none, fmt.Errorf("%w %s", domain.ErrForbidden, name)
	}
	return resource, nil
}
