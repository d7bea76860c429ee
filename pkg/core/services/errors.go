package services

import (
	"errors"
	"fmt"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

var (
	ErrTokenTaken         = fmt.Errorf("custom short link is already taken: %w", domain.ErrConflict)
	ErrLinkNotFound       = fmt.Errorf("short link %w", domain.ErrNotFound)
	ErrNoLinks            = fmt.Errorf("no short links created yet: %w", domain.ErrNotFound)
	ErrNotOwner           = fmt.Errorf("not the owner of this short link: %w", domain.ErrForbidden)
	ErrUnknownOwner       = fmt.Errorf("account no longer exists: %w", domain.ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", domain.ErrUnauthorized)

	// ErrTokenSpaceExhausted means no free token was found within the attempt
	// budget. It is an internal fault, not a caller error.
	ErrTokenSpaceExhausted = errors.New("no free short token found")
)
