// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package xrpl

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/nftgate-foundation/nftgate/lib/ref"
)

// ImageFetcher resolves a collection preview image. Client implements
// it; tests substitute a stub.
type ImageFetcher interface {
	CollectionImage(ctx context.Context, account ref.XRPLAccount, issuer, taxon string) (string, error)
}

// ImageResolver serializes preview-image lookups per issuer/taxon key.
// Each key has at most one lookup in flight: starting a new lookup for
// a key cancels the previous one, and a response that arrives after it
// has been superseded is discarded without invoking its callback. This
// keeps a fast-typing admin from seeing an older collection's image
// overwrite the one they just selected.
type ImageResolver struct {
	fetcher ImageFetcher
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*imageLookup
}

type imageLookup struct {
	cancel context.CancelFunc
}

// NewImageResolver creates a resolver backed by the given fetcher.
// A nil logger discards log output.
func NewImageResolver(fetcher ImageFetcher, logger *slog.Logger) *ImageResolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ImageResolver{
		fetcher: fetcher,
		logger:  logger,
		pending: make(map[string]*imageLookup),
	}
}

// Lookup starts an asynchronous image lookup for the issuer/taxon
// collection, searching the given account's tokens. When the lookup
// completes and has not been superseded by a newer Lookup for the same
// key, apply is called with the result. Superseded lookups are
// cancelled and their results dropped.
//
// apply runs on the lookup's goroutine; it must not call Lookup for
// the same key synchronously.
func (r *ImageResolver) Lookup(ctx context.Context, account ref.XRPLAccount, issuer, taxon string, apply func(imageURL string, err error)) {
	key := issuer + "/" + taxon
	lookupCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if previous := r.pending[key]; previous != nil {
		previous.cancel()
	}
	current := &imageLookup{cancel: cancel}
	r.pending[key] = current
	r.mu.Unlock()

	go func() {
		imageURL, err := r.fetcher.CollectionImage(lookupCtx, account, issuer, taxon)
		cancel()

		r.mu.Lock()
		stale := r.pending[key] != current
		if !stale {
			delete(r.pending, key)
		}
		r.mu.Unlock()

		if stale {
			r.logger.Debug("discarding superseded image lookup",
				"issuer", issuer,
				"taxon", taxon,
			)
			return
		}
		apply(imageURL, err)
	}()
}

// CancelAll cancels every in-flight lookup. Pending callbacks are
// dropped. Call on editor shutdown.
func (r *ImageResolver) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, lookup := range r.pending {
		lookup.cancel()
		delete(r.pending, key)
	}
}
