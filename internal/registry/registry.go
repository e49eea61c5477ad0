// Package registry holds the process-wide service catalog and builds the
// per-request, per-version service bundles handed to clients.
//
// A Registry is immutable once constructed and is shared by reference across
// request goroutines without locking.
package registry

import (
	"strings"

	"gateway_go/internal/endpoint"
)

// DefaultPrefixID is the catalog entry that roots the asset namespace.
const DefaultPrefixID = "assets"

type Options struct {
	// PrefixID names the entry whose endpoint is exposed as a directory prefix.
	PrefixID string
}

type Registry struct {
	services    []Descriptor
	raw         []byte
	contentType string
	prefixID    string
}

// Entry is one service in a bundle. Prefix is only set for the prefix entry.
type Entry struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	Endpoint string `json:"endpoint"`
	Prefix   string `json:"prefix,omitempty"`
}

type Bundle struct {
	Bundle   string           `json:"bundle"`
	Services map[string]Entry `json:"services"`
}

// New builds a registry from already parsed descriptors. raw is the source
// document served verbatim by the discovery endpoint.
func New(raw []byte, contentType string, services []Descriptor, opts Options) (*Registry, error) {
	if err := validate(services); err != nil {
		return nil, err
	}
	if opts.PrefixID == "" {
		opts.PrefixID = DefaultPrefixID
	}
	if contentType == "" {
		contentType = "application/json"
	}

	copied := make([]Descriptor, len(services))
	copy(copied, services)
	rawCopy := make([]byte, len(raw))
	copy(rawCopy, raw)

	return &Registry{
		services:    copied,
		raw:         rawCopy,
		contentType: contentType,
		prefixID:    opts.PrefixID,
	}, nil
}

// Raw returns the catalog document as loaded and its media type. Callers must
// not modify the returned slice.
func (r *Registry) Raw() ([]byte, string) {
	return r.raw, r.contentType
}

// Services returns a copy of the catalog in stored order.
func (r *Registry) Services() []Descriptor {
	out := make([]Descriptor, len(r.services))
	copy(out, r.services)
	return out
}

// BuildBundle resolves every catalog entry admitted by filter for version,
// anchoring endpoints to origin. Filter ids missing from the catalog are
// ignored.
func (r *Registry) BuildBundle(version string, filter Filter, origin endpoint.Origin) Bundle {
	bundle := Bundle{
		Bundle:   version,
		Services: make(map[string]Entry, len(r.services)),
	}

	for _, svc := range r.services {
		if !filter.Allows(svc.ID) {
			continue
		}

		entry := Entry{
			ID:       svc.ID,
			Version:  svc.Version,
			Endpoint: endpoint.Normalize(svc.Endpoint, version, origin),
		}
		if svc.ID == r.prefixID {
			entry.Endpoint = withTrailingSlash(entry.Endpoint)
			entry.Prefix = entry.Endpoint
		}
		bundle.Services[svc.ID] = entry
	}

	return bundle
}

// withTrailingSlash makes the path of endpoint end in "/", leaving any query
// or fragment after it.
func withTrailingSlash(endpoint string) string {
	path, suffix := endpoint, ""
	if idx := strings.IndexAny(endpoint, "?#"); idx >= 0 {
		path, suffix = endpoint[:idx], endpoint[idx:]
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + suffix
}
