package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsupportedScheme is returned for resource URLs other than local paths
// and http(s) URLs.
var ErrUnsupportedScheme = errors.New("resource: unsupported scheme")

// A Resource is a readable stream backed by a local file or a remote URL.
// Callers must Close it when done.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns the base name of the resource path without its extension. Mesh
// loaders use it as the default mesh name.
func (r *Resource) Name() string {
	base := path.Base(filepath.ToSlash(r.url.Path))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. See NewResourceWithContext.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	return NewResourceWithContext(context.Background(), pathToResource, relTo)
}

// Open a resource. If relTo is specified and pathToResource does not define a
// scheme, the path is resolved against the directory of relTo.
//
// Local paths are opened from disk and http/https URLs are fetched with
// the default http client.
func NewResourceWithContext(ctx context.Context, pathToResource string, relTo *Resource) (*Resource, error) {
	resURL, err := url.Parse(strings.ReplaceAll(pathToResource, `\`, `/`))
	if err != nil {
		return nil, err
	}

	if resURL.Scheme == "" && relTo != nil {
		resURL, err = resolveRelative(resURL.Path, relTo)
		if err != nil {
			return nil, err
		}
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		reader, err = fetch(ctx, resURL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnsupportedScheme, resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, err := url.Parse(name)
	if err != nil {
		resURL = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
	}
}

func resolveRelative(relPath string, relTo *Resource) (*url.URL, error) {
	if relTo.IsRemote() {
		out := *relTo.url
		out.Path = path.Join(path.Dir(relTo.url.Path), relPath)
		return &out, nil
	}

	prefix, err := filepath.Abs(relTo.url.Path)
	if err != nil {
		return nil, fmt.Errorf("resource: could not detect abs path for %s; %w", relTo.url.String(), err)
	}
	return &url.URL{Path: filepath.Join(filepath.Dir(prefix), relPath)}, nil
}

func fetch(ctx context.Context, resURL *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resURL.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %w", resURL.String(), err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
	}
	return resp.Body, nil
}
