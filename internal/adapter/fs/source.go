package fs

import (
	"context"
)

// Source lists the files below a catalog's base directories.
// It implements pipeline.Extractor.
type Source struct {
	patterns []string
}

// NewSource creates a Source over full path glob patterns such as
// /dcom/*/sst/*-OSPO-L3?_GHRSST-*.nc.
func NewSource(patterns []string) *Source {
	return &Source{patterns: patterns}
}

// Extract re-lists the filesystem on every call.
func (s *Source) Extract(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Discover(s.patterns)
}
