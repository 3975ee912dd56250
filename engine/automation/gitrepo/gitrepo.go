// Package gitrepo implements host.RepositoryManager against a local git
// working tree, grounded on go-git: the worker acquires a named lock
// (repository_name) before invoking a transform, preventing concurrent
// checkouts of the same repo.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/infrahub-io/computed-attributes/pkg/logger"
)

// CloneURLResolver maps a repository's (id, name) to the URL to clone or
// fetch from — a thin stand-in for the host's own repository manager,
// which owns cloning mechanics.
type CloneURLResolver interface {
	CloneURL(ctx context.Context, repositoryID, repositoryName string) (string, error)
}

// Manager checks out transform repositories into a per-repository worktree
// under BaseDir, serializing checkouts of the same repository with a named
// mutex.
type Manager struct {
	BaseDir string
	URLs    CloneURLResolver

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager builds a Manager rooted at baseDir.
func NewManager(baseDir string, urls CloneURLResolver) *Manager {
	return &Manager{BaseDir: baseDir, URLs: urls, locks: make(map[string]*sync.Mutex)}
}

func (m *Manager) namedLock(repositoryName string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[repositoryName]
	if !ok {
		l = &sync.Mutex{}
		m.locks[repositoryName] = l
	}
	return l
}

func (m *Manager) repoDir(repositoryName string) string {
	return filepath.Join(m.BaseDir, repositoryName)
}

// ResolveCommit fetches repositoryName and returns the commit hash branch
// currently points to.
func (m *Manager) ResolveCommit(ctx context.Context, repositoryID, repositoryName, branch string) (string, error) {
	log := logger.FromContext(ctx)
	lock := m.namedLock(repositoryName)
	lock.Lock()
	defer lock.Unlock()

	repo, err := m.openOrClone(ctx, repositoryID, repositoryName)
	if err != nil {
		return "", err
	}
	if err := fetch(repo); err != nil {
		log.Warn("gitrepo: fetch failed, using local refs", "repository", repositoryName, "error", err)
	}
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		ref, err = repo.Reference(plumbing.NewBranchReferenceName(branch), true)
		if err != nil {
			return "", fmt.Errorf("resolve branch %q on %q: %w", branch, repositoryName, err)
		}
	}
	return ref.Hash().String(), nil
}

// Checkout acquires the named lock for repositoryName and checks out commit
// into its worktree, returning an unlock func the caller must invoke when
// done with the tree.
func (m *Manager) Checkout(ctx context.Context, repositoryID, repositoryName, commit string) (string, func(), error) {
	lock := m.namedLock(repositoryName)
	lock.Lock()

	repo, err := m.openOrClone(ctx, repositoryID, repositoryName)
	if err != nil {
		lock.Unlock()
		return "", nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		lock.Unlock()
		return "", nil, fmt.Errorf("worktree for %q: %w", repositoryName, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(commit), Force: true}); err != nil {
		lock.Unlock()
		return "", nil, fmt.Errorf("checkout %q at %s: %w", repositoryName, commit, err)
	}
	return m.repoDir(repositoryName), lock.Unlock, nil
}

func (m *Manager) openOrClone(ctx context.Context, repositoryID, repositoryName string) (*git.Repository, error) {
	dir := m.repoDir(repositoryName)
	repo, err := git.PlainOpen(dir)
	if err == nil {
		return repo, nil
	}
	if err != git.ErrRepositoryNotExists {
		return nil, fmt.Errorf("open %q: %w", repositoryName, err)
	}

	url, err := m.URLs.CloneURL(ctx, repositoryID, repositoryName)
	if err != nil {
		return nil, fmt.Errorf("resolve clone url for %q: %w", repositoryName, err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("create worktree root for %q: %w", repositoryName, err)
	}
	return git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
}

func fetch(repo *git.Repository) error {
	err := repo.Fetch(&git.FetchOptions{RemoteName: "origin"})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return err
	}
	return nil
}
