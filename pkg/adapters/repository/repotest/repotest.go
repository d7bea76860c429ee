// Package repotest is a behaviour suite shared by every ports.Repository
// implementation. Adapters call Run from their own tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// Factory returns an empty repository. Cleanup is registered on t.
type Factory func(t *testing.T) ports.Repository

func Run(t *testing.T, newRepo Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo ports.Repository)
	}{
		{"CreateAndGetUser", testCreateAndGetUser},
		{"DuplicateUser", testDuplicateUser},
		{"ConcurrentRegistration", testConcurrentRegistration},
		{"CreateLinkAppendsToOwner", testCreateLinkAppendsToOwner},
		{"CreateLinkConflict", testCreateLinkConflict},
		{"CreateLinkUnknownOwner", testCreateLinkUnknownOwner},
		{"ConcurrentCustomToken", testConcurrentCustomToken},
		{"IncrementClicks", testIncrementClicks},
		{"ConcurrentIncrement", testConcurrentIncrement},
		{"ListLinksByOwner", testListLinksByOwner},
		{"Dump", testDump},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

func newUser(id int64, name string) *domain.User {
	return &domain.User{
		ID:           id,
		Username:     name,
		PasswordHash: "$2a$04$hash-for-" + name,
		CreatedLinks: []string{},
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func newLink(token, owner string) *domain.ShortLink {
	return &domain.ShortLink{
		Token:     token,
		TargetURL: "https://example.com/" + token,
		DomainTag: "my-site.com",
		Owner:     owner,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func testCreateAndGetUser(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	user := newUser(1000, "alice")
	require.NoError(t, repo.CreateUser(ctx, user))

	got, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
	assert.Empty(t, got.CreatedLinks)
	assert.WithinDuration(t, user.CreatedAt, got.CreatedAt, time.Second)

	_, err = repo.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testDuplicateUser(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, newUser(1, "alice")))

	err := repo.CreateUser(ctx, newUser(2, "alice"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
}

func testConcurrentRegistration(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	const workers = 16

	var created, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		id := int64(i)
		g.Go(func() error {
			err := repo.CreateUser(ctx, newUser(id, "racer"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
}

func testCreateLinkAppendsToOwner(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, newUser(1, "alice")))

	link := newLink("abc123", "alice")
	require.NoError(t, repo.CreateLink(ctx, link))

	got, err := repo.GetLink(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, link.TargetURL, got.TargetURL)
	assert.Equal(t, "my-site.com", got.DomainTag)
	assert.Equal(t, "alice", got.Owner)
	assert.Zero(t, got.Clicks)

	exists, err := repo.LinkExists(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.LinkExists(ctx, "zzzzzz")
	require.NoError(t, err)
	assert.False(t, exists)

	user, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123"}, user.CreatedLinks)

	_, err = repo.GetLink(ctx, "zzzzzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testCreateLinkConflict(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, newUser(1, "alice")))
	require.NoError(t, repo.CreateUser(ctx, newUser(2, "bob")))
	require.NoError(t, repo.CreateLink(ctx, newLink("taken", "alice")))

	err := repo.CreateLink(ctx, newLink("taken", "bob"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	bob, err := repo.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bob.CreatedLinks)

	got, err := repo.GetLink(ctx, "taken")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
}

func testCreateLinkUnknownOwner(t *testing.T, repo ports.Repository) {
	ctx := context.Background()

	err := repo.CreateLink(ctx, newLink("orphan", "ghost"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	exists, err := repo.LinkExists(ctx, "orphan")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testConcurrentCustomToken(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	const workers = 16
	for i := 0; i < workers; i++ {
		require.NoError(t, repo.CreateUser(ctx, newUser(int64(i), fmt.Sprintf("user%02d", i))))
	}

	var created, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		owner := fmt.Sprintf("user%02d", i)
		g.Go(func() error {
			err := repo.CreateLink(ctx, newLink("brand", owner))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())

	link, err := repo.GetLink(ctx, "brand")
	require.NoError(t, err)
	owner, err := repo.GetUser(ctx, link.Owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"brand"}, owner.CreatedLinks)
}

func testIncrementClicks(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, newUser(1, "alice")))
	require.NoError(t, repo.CreateLink(ctx, newLink("click1", "alice")))

	for want := int64(1); want <= 3; want++ {
		link, err := repo.IncrementClicks(ctx, "click1")
		require.NoError(t, err)
		assert.Equal(t, want, link.Clicks)
		assert.Equal(t, "https://example.com/click1", link.TargetURL)
	}

	_, err := repo.IncrementClicks(ctx, "nothere")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testConcurrentIncrement(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	const clicks = 50
	require.NoError(t, repo.CreateUser(ctx, newUser(1, "alice")))
	require.NoError(t, repo.CreateLink(ctx, newLink("hot", "alice")))

	var g errgroup.Group
	for i := 0; i < clicks; i++ {
		g.Go(func() error {
			_, err := repo.IncrementClicks(ctx, "hot")
			return err
		})
	}
	require.NoError(t, g.Wait())

	link, err := repo.GetLink(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, int64(clicks), link.Clicks)
}

func testListLinksByOwner(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, newUser(1, "alice")))
	require.NoError(t, repo.CreateUser(ctx, newUser(2, "bob")))

	empty, err := repo.ListLinksByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, token := range []string{"first", "second", "third"} {
		require.NoError(t, repo.CreateLink(ctx, newLink(token, "alice")))
	}
	require.NoError(t, repo.CreateLink(ctx, newLink("bobs", "bob")))

	links, err := repo.ListLinksByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, links, 3)
	for i, token := range []string{"first", "second", "third"} {
		assert.Equal(t, token, links[i].Token)
		assert.Equal(t, "alice", links[i].Owner)
	}

	unknown, err := repo.ListLinksByOwner(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func testDump(t *testing.T, repo ports.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, newUser(1, "alice")))
	require.NoError(t, repo.CreateUser(ctx, newUser(2, "bob")))
	require.NoError(t, repo.CreateLink(ctx, newLink("one", "alice")))
	require.NoError(t, repo.CreateLink(ctx, newLink("two", "bob")))
	_, err := repo.IncrementClicks(ctx, "two")
	require.NoError(t, err)

	users, links, err := repo.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Len(t, links, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.NotEmpty(t, users[0].PasswordHash)
	assert.Equal(t, "one", links[0].Token)
	assert.Equal(t, "two", links[1].Token)
	assert.Equal(t, int64(1), links[1].Clicks)
}
