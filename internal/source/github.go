package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// GitHub reads catalog documents from a repository path: every *.yaml file
// under the path is parsed as a Document and their provider/model records
// are concatenated in filename order (the API lists contents sorted).
type GitHub struct {
	owner  string
	repo   string
	ref    string
	path   string
	client *github.Client
}

// NewGitHub creates a GitHub-backed source. token may be empty for public
// repositories.
func NewGitHub(ctx context.Context, owner, repo, ref, path, token string) *GitHub {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}
	return &GitHub{owner: owner, repo: repo, ref: ref, path: path, client: client}
}

func (g *GitHub) Name() string {
	return fmt.Sprintf("github:%s/%s/%s", g.owner, g.repo, g.path)
}

func (g *GitHub) Fetch(ctx context.Context) (*Document, error) {
	opts := &github.RepositoryContentGetOptions{Ref: g.ref}
	file, dir, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, g.path, opts)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", g.path, err)
	}

	if file != nil {
		return g.parseContent(file)
	}

	doc := &Document{}
	var models []any
	for _, entry := range dir {
		if entry.GetType() != "file" || !strings.HasSuffix(entry.GetName(), ".yaml") {
			continue
		}
		sub, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, entry.GetPath(), opts)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", entry.GetPath(), err)
		}
		part, err := g.parseContent(sub)
		if err != nil {
			return nil, err
		}
		doc.Providers = append(doc.Providers, part.Providers...)
		if list, ok := part.Models.([]any); ok {
			models = append(models, list...)
		} else if part.Models != nil {
			return nil, fmt.Errorf("%s: map-shaped models not supported in multi-file github sources", entry.GetPath())
		}
	}
	if len(models) > 0 {
		doc.Models = models
	}
	return doc, nil
}

func (g *GitHub) parseContent(file *github.RepositoryContent) (*Document, error) {
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", file.GetPath(), err)
	}
	var doc Document
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file.GetPath(), err)
	}
	return &doc, nil
}
