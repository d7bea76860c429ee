package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/core/validation"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type LinkService struct {
	links  ports.LinkRepository
	tokens *TokenGenerator
	now    func() time.Time
}

func NewLinkService(links ports.LinkRepository, tokens *TokenGenerator) *LinkService {
	return &LinkService{links: links, tokens: tokens, now: time.Now}
}

// Shorten creates a link owned by owner. A custom token is checked for
// conflicts before the URL and domain are validated.
func (s *LinkService) Shorten(ctx context.Context, owner string, req domain.ShortenRequest) (*domain.ShortLink, error) {
	if err := domain.NewValidationError(validation.ShortenRequired(req)); err != nil {
		return nil, err
	}

	if req.CustomToken != "" {
		taken, err := s.links.LinkExists(ctx, req.CustomToken)
		if err != nil {
			return nil, fmt.Errorf("check custom token: %w", err)
		}
		if taken {
			return nil, ErrTokenTaken
		}
	}

	if err := domain.NewValidationError(validation.ShortenSyntax(req)); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		token := req.CustomToken
		if token == "" {
			var err error
			token, err = s.tokens.Allocate(ctx)
			if err != nil {
				return nil, err
			}
		}

		link := &domain.ShortLink{
			Token:     token,
			TargetURL: req.TargetURL,
			DomainTag: req.DomainTag,
			Clicks:    0,
			Owner:     owner,
			CreatedAt: s.now(),
		}

		err := s.links.CreateLink(ctx, link)
		switch {
		case err == nil:
			return link, nil
		case errors.Is(err, domain.ErrConflict):
			if req.CustomToken != "" {
				return nil, ErrTokenTaken
			}
			// Lost the race for a generated token; try another one.
			if attempt >= s.tokens.MaxAttempts() {
				return nil, fmt.Errorf("%w after %d inserts", ErrTokenSpaceExhausted, attempt)
			}
		case errors.Is(err, domain.ErrNotFound):
			return nil, ErrUnknownOwner
		default:
			return nil, fmt.Errorf("create link: %w", err)
		}
	}
}

// Resolve counts a click and returns the target URL.
func (s *LinkService) Resolve(ctx context.Context, token string) (string, error) {
	link, err := s.links.IncrementClicks(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return "", ErrLinkNotFound
	}
	if err != nil {
		return "", fmt.Errorf("increment clicks: %w", err)
	}
	return link.TargetURL, nil
}

// Stats returns a snapshot of a link owned by caller.
func (s *LinkService) Stats(ctx context.Context, caller, token string) (*domain.ShortLink, error) {
	link, err := s.links.GetLink(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if link.Owner != caller {
		return nil, ErrNotOwner
	}
	return link, nil
}

// ListByOwner returns the owner's links in creation order. An owner without
// links gets ErrNoLinks.
func (s *LinkService) ListByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error) {
	links, err := s.links.ListLinksByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	if len(links) == 0 {
		return nil, ErrNoLinks
	}
	return links, nil
}

// Ensure interface compliance
var _ ports.LinkService = (*LinkService)(nil)
