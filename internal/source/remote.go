package source

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/atlas/internal/httpclient"
)

// Remote fetches a catalog document over HTTP. YAML and JSON payloads both
// parse (YAML is a superset).
type Remote struct {
	name   string
	url    string
	client *httpclient.Client
}

// NewRemote creates a remote source.
func NewRemote(name, url string, client *httpclient.Client) *Remote {
	return &Remote{name: name, url: url, client: client}
}

func (r *Remote) Name() string { return "remote:" + r.name }

func (r *Remote) Fetch(ctx context.Context) (*Document, error) {
	body, err := r.client.Get(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", r.url, err)
	}
	var doc Document
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", r.url, err)
	}
	return &doc, nil
}
