// Package repository holds the membership level catalog.
package repository

import "github.com/redbuttegarden/memberships/pkg/logger"

// Option applies a configuration option to the InMemoryStore.
type Option func(*InMemoryStore)

// WithLogger sets the logger used to report catalog replacements.
func WithLogger(l logger.Logger) Option {
	return func(s *InMemoryStore) {
		if l != nil {
			s.logger = l
		}
	}
}
