// Package redis stores users and links in Redis hashes. Every multi-key
// write runs as a Lua script so it is atomic on the server.
package redis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// KEYS: user hash, user list. ARGV: id, password_hash, created_at, username
var createUserScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], "id", ARGV[1], "password_hash", ARGV[2], "created_at", ARGV[3])
redis.call("RPUSH", KEYS[2], ARGV[4])
return 1
`)

// KEYS: owner hash, link hash, owner link list, link list
// ARGV: token, target_url, domain, clicks, owner, created_at
var createLinkScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("HSET", KEYS[2], "token", ARGV[1], "target_url", ARGV[2], "domain", ARGV[3],
	"clicks", ARGV[4], "owner", ARGV[5], "created_at", ARGV[6])
redis.call("RPUSH", KEYS[3], ARGV[1])
redis.call("RPUSH", KEYS[4], ARGV[1])
return 1
`)

// KEYS: link hash
var incrementScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return false
end
redis.call("HINCRBY", KEYS[1], "clicks", 1)
return redis.call("HGETALL", KEYS[1])
`)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Repository struct {
	client *redis.Client
	prefix string
}

// NewRepository connects and pings the server.
func NewRepository(ctx context.Context, opts Options) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return NewFromClient(client, opts.Prefix), nil
}

func NewFromClient(client *redis.Client, prefix string) *Repository {
	if prefix == "" {
		prefix = "shortlink"
	}
	return &Repository{client: client, prefix: prefix}
}

func (r *Repository) userKey(username string) string      { return r.prefix + ":user:" + username }
func (r *Repository) userLinksKey(username string) string { return r.prefix + ":user:" + username + ":links" }
func (r *Repository) usersKey() string                    { return r.prefix + ":users" }
func (r *Repository) linkKey(token string) string         { return r.prefix + ":link:" + token }
func (r *Repository) linksKey() string                    { return r.prefix + ":links" }

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	keys := []string{r.userKey(user.Username), r.usersKey()}
	created, err := createUserScript.Run(ctx, r.client, keys,
		user.ID, user.PasswordHash, user.CreatedAt.Format(time.RFC3339Nano), user.Username).Int()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if created == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, username string) (*domain.User, error) {
	fields, err := r.client.HGetAll(ctx, r.userKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	user, err := parseUser(username, fields)
	if err != nil {
		return nil, err
	}

	user.CreatedLinks, err = r.client.LRange(ctx, r.userLinksKey(username), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get user links: %w", err)
	}
	return user, nil
}

func (r *Repository) CreateLink(ctx context.Context, link *domain.ShortLink) error {
	keys := []string{
		r.userKey(link.Owner),
		r.linkKey(link.Token),
		r.userLinksKey(link.Owner),
		r.linksKey(),
	}
	if link.Clicks < 0 {
		return fmt.Errorf("create link: negative clicks %d", link.Clicks)
	}

	result, err := createLinkScript.Run(ctx, r.client, keys,
		link.Token, link.TargetURL, link.DomainTag, link.Clicks, link.Owner,
		link.CreatedAt.Format(time.RFC3339Nano)).Int()
	if err != nil {
		return fmt.Errorf("create link: %w", err)
	}

	switch result {
	case -1:
		return domain.ErrNotFound
	case 0:
		return domain.ErrConflict
	}
	return nil
}

func (r *Repository) GetLink(ctx context.Context, token string) (*domain.ShortLink, error) {
	fields, err := r.client.HGetAll(ctx, r.linkKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return parseLink(fields)
}

func (r *Repository) LinkExists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.linkKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("link exists: %w", err)
	}
	return n == 1, nil
}

func (r *Repository) IncrementClicks(ctx context.Context, token string) (*domain.ShortLink, error) {
	pairs, err := incrementScript.Run(ctx, r.client, []string{r.linkKey(token)}).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment clicks: %w", err)
	}

	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = pairs[i+1]
	}
	return parseLink(fields)
}

func (r *Repository) ListLinksByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error) {
	tokens, err := r.client.LRange(ctx, r.userLinksKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return r.getLinks(ctx, tokens)
}

func (r *Repository) Dump(ctx context.Context) ([]domain.User, []domain.ShortLink, error) {
	names, err := r.client.LRange(ctx, r.usersKey(), 0, -1).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("dump users: %w", err)
	}

	users := make([]domain.User, 0, len(names))
	for _, name := range names {
		u, err := r.GetUser(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		users = append(users, *u)
	}
	slices.SortFunc(users, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })

	tokens, err := r.client.LRange(ctx, r.linksKey(), 0, -1).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("dump links: %w", err)
	}
	links, err := r.getLinks(ctx, tokens)
	if err != nil {
		return nil, nil, err
	}
	return users, links, nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}

// getLinks reads the hashes for tokens in one round trip, keeping order.
func (r *Repository) getLinks(ctx context.Context, tokens []string) ([]domain.ShortLink, error) {
	links := make([]domain.ShortLink, 0, len(tokens))
	if len(tokens) == 0 {
		return links, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(tokens))
	for i, token := range tokens {
		cmds[i] = pipe.HGetAll(ctx, r.linkKey(token))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("get links: %w", err)
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		link, err := parseLink(fields)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, nil
}

func parseUser(username string, fields map[string]string) (*domain.User, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("user %s: bad id: %w", username, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("user %s: bad created_at: %w", username, err)
	}
	return &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: fields["password_hash"],
		CreatedLinks: []string{},
		CreatedAt:    createdAt,
	}, nil
}

func parseLink(fields map[string]string) (*domain.ShortLink, error) {
	clicks, err := strconv.ParseInt(fields["clicks"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("link %s: bad clicks: %w", fields["token"], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("link %s: bad created_at: %w", fields["token"], err)
	}
	return &domain.ShortLink{
		Token:     fields["token"],
		TargetURL: fields["target_url"],
		DomainTag: fields["domain"],
		Clicks:    clicks,
		Owner:     fields["owner"],
		CreatedAt: createdAt,
	}, nil
}

var _ ports.Repository = (*Repository)(nil)
