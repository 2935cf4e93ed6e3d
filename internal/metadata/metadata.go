// Package metadata models the per-version manifest published by the game
// distributor and reads the data version out of a cached game jar.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/blockdeck/blockdeck/internal/download"
	"github.com/blockdeck/blockdeck/internal/version"
)

// Download is one downloadable artifact as listed in the manifest.
type Download struct {
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
	// Path is the repository-relative location; only library artifacts carry it.
	Path string `json:"path,omitempty"`
}

// Descriptor converts d into a download request committed under d.Path.
func (d Download) Descriptor() (download.Descriptor, error) {
	if d.Path == "" {
		return download.Descriptor{}, fmt.Errorf("download %s: %w", d.URL, ErrMissingPath)
	}
	return download.Descriptor{
		URL:  d.URL,
		Size: d.Size,
		SHA1: d.SHA1,
		Key:  d.Path,
	}, nil
}

// ErrMissingPath means a download cannot be cached because it names no path.
var ErrMissingPath = errors.New("download must give a path")

// Downloads lists the game jars.
type Downloads struct {
	Client *Download `json:"client"`
	Server *Download `json:"server"`
}

// Library is a classpath dependency of the game client.
type Library struct {
	Name      string `json:"name"`
	Downloads struct {
		Artifact *Download `json:"artifact"`
	} `json:"downloads"`
}

// Metadata is the subset of the version manifest blockdeck consumes.
type Metadata struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Downloads Downloads `json:"downloads"`
	Libraries []Library `json:"libraries"`
}

// ClientJar returns the client download keyed under a per-version path.
func (m *Metadata) ClientJar() (Download, error) {
	if m.Downloads.Client == nil {
		return Download{}, fmt.Errorf("version %s has no client download", m.ID)
	}
	if m.ID == "" {
		return Download{}, errors.New("version id required")
	}
	client := *m.Downloads.Client
	client.Path = path.Join("net/minecraft/client", m.ID, "client-"+m.ID+".jar")
	return client, nil
}

// Classpath returns the client jar followed by every library artifact.
// Libraries without an artifact (native-only entries) are skipped.
func (m *Metadata) Classpath() ([]Download, error) {
	client, err := m.ClientJar()
	if err != nil {
		return nil, err
	}
	jars := make([]Download, 0, 1+len(m.Libraries))
	jars = append(jars, client)
	for _, lib := range m.Libraries {
		if lib.Downloads.Artifact == nil {
			continue
		}
		jars = append(jars, *lib.Downloads.Artifact)
	}
	return jars, nil
}

// Client fetches version manifests.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient wraps an HTTP client; nil selects http.DefaultClient.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{http: client, userAgent: version.UserAgent()}
}

// Fetch downloads and decodes the manifest at url.
func (c *Client) Fetch(ctx context.Context, url string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch metadata %s: HTTP %d", url, resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", url, err)
	}
	return &meta, nil
}
