// Package git reports where a migration source tree came from.
package git

import (
	"log/slog"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/sitemigrator/internal/logfields"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

// Provenance looks up the repository containing dir and returns its HEAD
// commit, branch and origin URL. A directory outside any repository, or a
// repository without commits, yields an empty Provenance.
func Provenance(dir string) models.Provenance {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("source is not a git repository", logfields.Path(dir), logfields.Error(err))
		return models.Provenance{}
	}
	head, err := repo.Head()
	if err != nil {
		slog.Debug("git HEAD unavailable", logfields.Path(dir), logfields.Error(err))
		return models.Provenance{}
	}
	p := models.Provenance{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		p.Branch = head.Name().Short()
	}
	if remote, err := repo.Remote(git.DefaultRemoteName); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			p.Remote = urls[0]
		}
	}
	return p
}
