// Package blocks decides whether an interaction between two users is
// suppressed by a block record. Blocks are directional; suppression of
// delivery checks both directions so a block is unilaterally effective no
// matter which side created it.
package blocks

import (
	"context"

	"chatline_server/store"
)

// Filter answers block queries against the block repository.
type Filter struct {
	repo store.BlockRepository
}

// NewFilter returns a filter over repo.
func NewFilter(repo store.BlockRepository) *Filter {
	return &Filter{repo: repo}
}

// IsBlocked reports whether blocker has an active block against blocked, in
// that direction only.
func (f *Filter) IsBlocked(ctx context.Context, blockerID string, blockedID string) (bool, error) {
	return f.repo.IsBlocked(ctx, blockerID, blockedID)
}

// Suppressed reports whether any interaction between a and b must be hidden:
// true when a block exists in either direction. Only future dispatch is
// suppressed; history already delivered stays as is.
func (f *Filter) Suppressed(ctx context.Context, a string, b string) (bool, error) {

	blocked, err := f.repo.IsBlocked(ctx, a, b)
	if err != nil {
		return false, err
	}
	if blocked {
		return true, nil
	}

	return f.repo.IsBlocked(ctx, b, a)
}
