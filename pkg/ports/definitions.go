package ports

import (
	"context"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

// UserRepository is the credential store.
// Lookups of unknown usernames return domain.ErrNotFound.
type UserRepository interface {
	// CreateUser inserts the user if the username is free, else domain.ErrConflict
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, username string) (*domain.User, error)
}

// LinkRepository is the link table. Implementations must be safe for
// concurrent use and return copies, never internal state.
type LinkRepository interface {
	// CreateLink inserts the link and appends its token to the owner's
	// created links as one atomic step. Taken token -> domain.ErrConflict,
	// unknown owner -> domain.ErrNotFound.
	CreateLink(ctx context.Context, link *domain.ShortLink) error
	GetLink(ctx context.Context, token string) (*domain.ShortLink, error)
	LinkExists(ctx context.Context, token string) (bool, error)
	// IncrementClicks atomically adds one click and returns the updated link
	IncrementClicks(ctx context.Context, token string) (*domain.ShortLink, error)
	// ListLinksByOwner returns the owner's links in creation order
	ListLinksByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error)
}

// Repository is a complete storage backend
type Repository interface {
	UserRepository
	LinkRepository

	// Dump returns every user and link, links in creation order. For migration.
	Dump(ctx context.Context) ([]domain.User, []domain.ShortLink, error)
	Close() error
}

// LinkService defines the link business operations
type LinkService interface {
	Shorten(ctx context.Context, owner string, req domain.ShortenRequest) (*domain.ShortLink, error)
	Resolve(ctx context.Context, token string) (string, error)
	Stats(ctx context.Context, caller, token string) (*domain.ShortLink, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error)
}

// UserService defines registration and login
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// PasswordHasher is a one-way hash with verification; salting is internal.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer issues and verifies identity tokens bound to a username.
type TokenIssuer interface {
	Issue(username string) (string, error)
	Verify(token string) (string, error)
}

// IDGenerator hands out synthetic numeric user ids.
type IDGenerator interface {
	NextID() (int64, error)
}

// IDGeneratorFunc adapts a plain function to IDGenerator.
type IDGeneratorFunc func() (int64, error)

func (f IDGeneratorFunc) NextID() (int64, error) { return f() }
