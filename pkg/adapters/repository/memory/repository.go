// Package memory is the in-process storage backend. State is lost when the
// process exits.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// Repository guards users and links with a single lock so that inserting a
// link and appending it to its owner happen together.
type Repository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	links map[string]*domain.ShortLink
	order []string
}

func NewRepository() *Repository {
	return &Repository{
		users: make(map[string]*domain.User),
		links: make(map[string]*domain.ShortLink),
	}
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return domain.ErrConflict
	}
	r.users[user.Username] = copyUser(user)
	return nil
}

func (r *Repository) GetUser(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[username]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return copyUser(user), nil
}

func (r *Repository) CreateLink(ctx context.Context, link *domain.ShortLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, exists := r.users[link.Owner]
	if !exists {
		return domain.ErrNotFound
	}
	if _, taken := r.links[link.Token]; taken {
		return domain.ErrConflict
	}

	stored := *link
	r.links[link.Token] = &stored
	r.order = append(r.order, link.Token)
	owner.CreatedLinks = append(owner.CreatedLinks, link.Token)
	return nil
}

func (r *Repository) GetLink(ctx context.Context, token string) (*domain.ShortLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.links[token]
	if !exists {
		return nil, domain.ErrNotFound
	}
	out := *link
	return &out, nil
}

func (r *Repository) LinkExists(ctx context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.links[token]
	return exists, nil
}

func (r *Repository) IncrementClicks(ctx context.Context, token string) (*domain.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[token]
	if !exists {
		return nil, domain.ErrNotFound
	}
	link.Clicks++
	out := *link
	return &out, nil
}

func (r *Repository) ListLinksByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[owner]
	if !exists {
		return []domain.ShortLink{}, nil
	}

	links := make([]domain.ShortLink, 0, len(user.CreatedLinks))
	for _, token := range user.CreatedLinks {
		links = append(links, *r.links[token])
	}
	return links, nil
}

func (r *Repository) Dump(ctx context.Context) ([]domain.User, []domain.ShortLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *copyUser(u))
	}
	slices.SortFunc(users, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })
	links := make([]domain.ShortLink, 0, len(r.order))
	for _, token := range r.order {
		links = append(links, *r.links[token])
	}
	return users, links, nil
}

func (r *Repository) Close() error {
	return nil
}

func copyUser(u *domain.User) *domain.User {
	out := *u
	out.CreatedLinks = make([]string, len(u.CreatedLinks))
	copy(out.CreatedLinks, u.CreatedLinks)
	return &out
}

// Ensure interface compliance
var _ ports.Repository = (*Repository)(nil)
