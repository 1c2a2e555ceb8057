package artifact

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitOps commits exported artifacts into a catalog repository.
type GitOps struct {
	repo     *git.Repository
	worktree *git.Worktree
	token    string
}

// OpenRepo opens the repository containing the export directory. token may
// be empty when pushing is not needed.
func OpenRepo(path, token string) (*GitOps, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening repo: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	return &GitOps{repo: repo, worktree: wt, token: token}, nil
}

// CommitExport stages everything and commits with the given message.
// Returns false without committing when the worktree is clean.
func (g *GitOps) CommitExport(message string) (bool, error) {
	if _, err := g.worktree.Add("."); err != nil {
		return false, fmt.Errorf("staging changes: %w", err)
	}
	status, err := g.worktree.Status()
	if err != nil {
		return false, fmt.Errorf("checking status: %w", err)
	}
	if status.IsClean() {
		return false, nil
	}
	_, err = g.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "atlas",
			Email: "atlas@everstack.dev",
			When:  time.Now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return true, nil
}

// Push pushes the current branch to origin.
func (g *GitOps) Push() error {
	return g.repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{"+refs/heads/*:refs/heads/*"},
		Auth: &githttp.BasicAuth{
			Username: "x-access-token",
			Password: g.token,
		},
	})
}
