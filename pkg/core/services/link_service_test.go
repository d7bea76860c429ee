package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/core/validation"
)

func newLinkFixture(t *testing.T, usernames ...string) (*LinkService, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	for i, name := range usernames {
		require.NoError(t, repo.CreateUser(context.Background(), &domain.User{ID: int64(i + 1), Username: name}))
	}
	return NewLinkService(repo, NewTokenGenerator(repo, DefaultMaxAttempts)), repo
}

func TestShorten_ThenResolve(t *testing.T) {
	svc, repo := newLinkFixture(t, "alice")
	ctx := context.Background()

	link, err := svc.Shorten(ctx, "alice", domain.ShortenRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)
	assert.Len(t, link.Token, TokenLength)
	assert.Zero(t, link.Clicks)
	assert.Empty(t, link.DomainTag)

	target, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)

	user, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{link.Token}, user.CreatedLinks)
}

func TestShorten_Validation(t *testing.T) {
	svc, _ := newLinkFixture(t, "alice")
	ctx := context.Background()

	_, err := svc.Shorten(ctx, "alice", domain.ShortenRequest{TargetURL: "https://example.com", CustomToken: "taken"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		req        domain.ShortenRequest
		wantErr    error
		wantFields []string
	}{
		{"missing url", domain.ShortenRequest{}, domain.ErrValidation, []string{validation.FieldOriginalURL}},
		{"not a url", domain.ShortenRequest{TargetURL: "not a url"}, domain.ErrValidation, []string{validation.FieldOriginalURL}},
		{"bad domain", domain.ShortenRequest{TargetURL: "https://example.com", DomainTag: "bad_domain"}, domain.ErrValidation, []string{validation.FieldDomain}},
		{"both invalid", domain.ShortenRequest{TargetURL: "nope", DomainTag: "-x-"}, domain.ErrValidation, []string{validation.FieldOriginalURL, validation.FieldDomain}},
		// the conflict check runs before syntax validation
		{"taken before invalid url", domain.ShortenRequest{TargetURL: "nope", CustomToken: "taken"}, ErrTokenTaken, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Shorten(ctx, "alice", tt.req)
			require.ErrorIs(t, err, tt.wantErr)

			var verr *domain.ValidationError
			if len(tt.wantFields) > 0 {
				require.ErrorAs(t, err, &verr)
				for _, f := range tt.wantFields {
					assert.Contains(t, verr.ByField(), f)
				}
			}
		})
	}
}

func TestShorten_UnknownOwner(t *testing.T) {
	svc, _ := newLinkFixture(t)
	_, err := svc.Shorten(context.Background(), "ghost", domain.ShortenRequest{TargetURL: "https://example.com"})
	assert.ErrorIs(t, err, ErrUnknownOwner)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestShorten_GeneratedCollisionRetries(t *testing.T) {
	svc, repo := newLinkFixture(t, "alice")
	ctx := context.Background()
	_, err := svc.Shorten(ctx, "alice", domain.ShortenRequest{TargetURL: "https://example.com", CustomToken: "aaaaaa"})
	require.NoError(t, err)

	svc.tokens.generate = sequence("aaaaaa", "aaaaaa", "bbbbbb")
	link, err := svc.Shorten(ctx, "alice", domain.ShortenRequest{TargetURL: "https://example.com/2"})
	require.NoError(t, err)
	assert.Equal(t, "bbbbbb", link.Token)

	links, err := repo.ListLinksByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestShorten_ConcurrentCustomToken(t *testing.T) {
	svc, _ := newLinkFixture(t, "alice", "bobby")
	ctx := context.Background()

	var created, conflicts atomic.Int32
	var g errgroup.Group
	for _, owner := range []string{"alice", "bobby"} {
		g.Go(func() error {
			_, err := svc.Shorten(ctx, owner, domain.ShortenRequest{TargetURL: "https://example.com", CustomToken: "promo"})
			switch {
			case err == nil:
				created.Add(1)
			case assert.ErrorIs(t, err, ErrTokenTaken):
				conflicts.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(1), conflicts.Load())
}

func TestResolve_ConcurrentClicks(t *testing.T) {
	svc, _ := newLinkFixture(t, "alice")
	ctx := context.Background()

	link, err := svc.Shorten(ctx, "alice", domain.ShortenRequest{TargetURL: "https://example.com"})
	require.NoError(t, err)

	const n = 100
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.Resolve(ctx, link.Token)
			return err
		})
	}
	require.NoError(t, g.Wait())

	stats, err := svc.Stats(ctx, "alice", link.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(n), stats.Clicks)
}

func TestResolve_NotFound(t *testing.T) {
	svc, _ := newLinkFixture(t)
	_, err := svc.Resolve(context.Background(), "nope00")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestStats(t *testing.T) {
	svc, _ := newLinkFixture(t, "alice", "bobby")
	ctx := context.Background()

	link, err := svc.Shorten(ctx, "alice", domain.ShortenRequest{TargetURL: "https://example.com", DomainTag: "example.com"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		caller  string
		token   string
		wantErr error
	}{
		{"owner", "alice", link.Token, nil},
		{"not owner", "bobby", link.Token, domain.ErrForbidden},
		{"unknown", "alice", "nope00", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Stats(ctx, tt.caller, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "example.com", got.DomainTag)
			assert.Zero(t, got.Clicks)
		})
	}

	// Stats never counts as a click
	got, err := svc.Stats(ctx, "alice", link.Token)
	require.NoError(t, err)
	assert.Zero(t, got.Clicks)
}

func TestListByOwner(t *testing.T) {
	svc, _ := newLinkFixture(t, "alice")
	ctx := context.Background()

	_, err := svc.ListByOwner(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoLinks)

	for _, token := range []string{"one", "two", "three"} {
		_, err := svc.Shorten(ctx, "alice", domain.ShortenRequest{TargetURL: "https://example.com/" + token, CustomToken: token})
		require.NoError(t, err)
	}

	links, err := svc.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, links, 3)
	for i, token := range []string{"one", "two", "three"} {
		assert.Equal(t, token, links[i].Token)
	}
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrTokenTaken, domain.ErrConflict)
	assert.ErrorIs(t, ErrLinkNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, ErrNoLinks, domain.ErrNotFound)
	assert.ErrorIs(t, ErrNotOwner, domain.ErrForbidden)
	assert.ErrorIs(t, ErrInvalidCredentials, domain.ErrUnauthorized)
	assert.NotErrorIs(t, ErrTokenSpaceExhausted, domain.ErrConflict)
}
