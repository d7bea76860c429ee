package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// snapshot is the migration format. Unlike the API it carries password hashes.
type snapshot struct {
	ExportedAt time.Time          `json:"exported_at"`
	Users      []snapshotUser     `json:"users"`
	Links      []domain.ShortLink `json:"links"`
}

type snapshotUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type importResult struct {
	Users, SkippedUsers int
	Links, SkippedLinks int
}

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportFile := exportCmd.String("file", "", "write to file instead of stdout")
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.New(os.Stderr, cfg.LogLevel, false)
	ctx := context.Background()

	repo, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to open store", "store", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		out := io.Writer(os.Stdout)
		if *exportFile != "" {
			f, err := os.Create(*exportFile)
			if err != nil {
				log.Error("failed to create file", "file", *exportFile, "error", err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}
		if err := exportSnapshot(ctx, repo, out); err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		f, err := os.Open(*importFile)
		if err != nil {
			log.Error("failed to open file", "file", *importFile, "error", err)
			os.Exit(1)
		}
		defer f.Close()

		res, err := importSnapshot(ctx, repo, f, log)
		if err != nil {
			log.Error("import failed", "error", err)
			os.Exit(1)
		}
		log.Info("import finished",
			"users", res.Users, "skipped_users", res.SkippedUsers,
			"links", res.Links, "skipped_links", res.SkippedLinks)
	default:
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}
}

func exportSnapshot(ctx context.Context, repo ports.Repository, w io.Writer) error {
	users, links, err := repo.Dump(ctx)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	snap := snapshot{
		ExportedAt: time.Now().UTC(),
		Users:      make([]snapshotUser, 0, len(users)),
		Links:      links,
	}
	for _, u := range users {
		snap.Users = append(snap.Users, snapshotUser{
			ID:           u.ID,
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}

// importSnapshot loads users then links in their exported order, so every
// owner's link list keeps its order. Existing usernames and tokens are skipped.
func importSnapshot(ctx context.Context, repo ports.Repository, r io.Reader, log *slog.Logger) (importResult, error) {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return importResult{}, fmt.Errorf("decode: %w", err)
	}

	var res importResult
	for _, u := range snap.Users {
		err := repo.CreateUser(ctx, &domain.User{
			ID:           u.ID,
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			CreatedLinks: []string{},
			CreatedAt:    u.CreatedAt,
		})
		switch {
		case err == nil:
			res.Users++
		case errors.Is(err, domain.ErrConflict):
			log.Info("skipping existing user", "username", u.Username)
			res.SkippedUsers++
		default:
			return res, fmt.Errorf("user %s: %w", u.Username, err)
		}
	}

	for i := range snap.Links {
		l := snap.Links[i]
		err := repo.CreateLink(ctx, &l)
		switch {
		case err == nil:
			res.Links++
		case errors.Is(err, domain.ErrConflict):
			log.Info("skipping existing token", "token", l.Token)
			res.SkippedLinks++
		case errors.Is(err, domain.ErrNotFound):
			log.Warn("skipping link with unknown owner", "token", l.Token, "owner", l.Owner)
			res.SkippedLinks++
		default:
			return res, fmt.Errorf("link %s: %w", l.Token, err)
		}
	}
	return res, nil
}
