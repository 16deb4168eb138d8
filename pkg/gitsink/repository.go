// Package gitsink writes law text into a git repository, one commit per
// version, with authorship and dates taken from the version rather than the
// machine running the conversion.
package gitsink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// DefaultEmailDomain is the domain of synthesized author emails.
const DefaultEmailDomain = "gov.si"

// AuthorIdentity is the author and committer of a commit.
type AuthorIdentity struct {
	Name  string
	Email string
}

// NewIdentity synthesizes an identity for a person: the email is the name
// lower-cased with whitespace runs replaced by dots, at domain.
//
//	NewIdentity("Franc Križanič", "gov.si").Email == "franc.križanič@gov.si"
func NewIdentity(name, domain string) AuthorIdentity {
	if domain == "" {
		domain = DefaultEmailDomain
	}
	local := strings.Join(strings.Fields(strings.ToLower(name)), ".")
	return AuthorIdentity{
		Name:  strings.TrimSpace(name),
		Email: local + "@" + domain,
	}
}

func (identity AuthorIdentity) signature(when time.Time) *object.Signature {
	return &object.Signature{Name: identity.Name, Email: identity.Email, When: when}
}

// Repository is a non-bare git repository on local disk.
type Repository struct {
	root   string
	repo   *git.Repository
	logger *zap.Logger
}

// Open opens the repository at root, initializing it (and creating root) if
// it does not exist yet.
func Open(root string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gitsink")

	repo, err := git.PlainOpen(root)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("creating repository directory: %w", err)
		}
		repo, err = git.PlainInit(root, false)
		if err == nil {
			logger.Info("initialized repository", zap.String("path", root))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", root, err)
	}
	return &Repository{root: root, repo: repo, logger: logger}, nil
}

// Root returns the working tree path.
func (repository *Repository) Root() string {
	return repository.root
}

// CommitFile writes content to filename in the working tree, stages all
// changes and commits them with identity as both author and committer at
// when. A commit is created even when the content did not change.
func (repository *Repository) CommitFile(ctx context.Context, filename string, content []byte, message string, identity AuthorIdentity, when time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename == "" || filepath.IsAbs(filename) || strings.HasPrefix(filepath.Clean(filename), "..") {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	path := filepath.Join(repository.root, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", filename, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", filename, err)
	}

	worktree, err := repository.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("staging changes: %w", err)
	}

	signature := identity.signature(when)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author:            signature,
		Committer:         signature,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("committing %s: %w", filename, err)
	}

	repository.logger.Debug("committed",
		zap.String("hash", hash.String()),
		zap.String("file", filename),
		zap.String("author", identity.Email),
		zap.Time("when", when))
	return hash.String(), nil
}

// CommitCount returns the number of commits reachable from HEAD. An empty
// repository has zero.
func (repository *Repository) CommitCount() (int, error) {
	history, err := repository.History()
	if err != nil {
		return 0, err
	}
	return len(history), nil
}

// Commit is a summary of one commit, used by callers inspecting history.
type Commit struct {
	Hash    string
	Message string
	Author  AuthorIdentity
	When    time.Time
}

// History returns commits reachable from HEAD, newest first.
func (repository *Repository) History() ([]Commit, error) {
	head, err := repository.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	commits, err := repository.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	defer commits.Close()

	var history []Commit
	err = commits.ForEach(func(commit *object.Commit) error {
		history = append(history, Commit{
			Hash:    commit.Hash.String(),
			Message: commit.Message,
			Author:  AuthorIdentity{Name: commit.Author.Name, Email: commit.Author.Email},
			When:    commit.Author.When,
		})
		return nil
	})
	return history, err
}
