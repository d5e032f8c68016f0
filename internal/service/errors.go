package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/repository"
)

// Error kinds returned by every service. Handlers map them to HTTP statuses.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrConflict        = errors.New("conflicting request")
	ErrInvalidState    = errors.New("invalid state for operation")
	ErrUnauthenticated = errors.New("authentication required")
	ErrStaleWrite      = errors.New("resource was modified concurrently")
)

// Actor identifies the caller of a service operation. A zero ID is a guest.
type Actor struct {
	ID   uint
	Role string
	Name string
}

// IsAdmin reports whether the caller holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Authenticated reports whether the caller is signed in.
func (a Actor) Authenticated() bool {
	return a.ID != 0
}

func authorizeMutation(ownerID uint, actor Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if ownerID == actor.ID || actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

func kindError(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// translate converts repository failures into service error kinds.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return kindError(ErrNotFound, "%s not found", entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return kindError(ErrConflict, "%s already exists", entity)
	case errors.Is(err, repository.ErrDuplicateAnswer):
		return kindError(ErrConflict, "%s", err.Error())
	case errors.Is(err, repository.ErrStaleVersion):
		return kindError(ErrStaleWrite, "%s was modified, reload and retry", entity)
	case errors.Is(err, repository.ErrNotAccepted):
		return kindError(ErrInvalidState, "%s", err.Error())
	default:
		return err
	}
}
