// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package xrpl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/nftgate-foundation/nftgate/lib/gate"
	"github.com/nftgate-foundation/nftgate/lib/netutil"
	"github.com/nftgate-foundation/nftgate/lib/ref"
	"github.com/nftgate-foundation/nftgate/lib/secret"
)

// ErrHoldingsUnavailable wraps every failure to determine what an
// account holds: network errors, non-200 responses, and unparseable
// bodies. The gatekeeper checks for it with errors.Is and denies
// access, because "unknown holdings" must never admit anyone.
var ErrHoldingsUnavailable = errors.New("holdings unavailable")

// HoldingsProvider returns the NFT holdings of an XRPL account in the
// gate evaluator's shape. Client and CachedProvider both implement it.
type HoldingsProvider interface {
	Holdings(ctx context.Context, account ref.XRPLAccount) (gate.Holdings, error)
}

// ClientConfig holds the parameters for creating a Bithomp API client.
type ClientConfig struct {
	// BaseURL is the Bithomp API root (e.g.,
	// "https://xrplexplorer.com" or "https://test.xrplexplorer.com"
	// for testnet). Required.
	BaseURL string

	// Token is the x-bithomp-token API key. Optional; without it
	// Bithomp applies anonymous rate limits.
	Token *secret.Buffer

	// HTTPClient is the HTTP client for API requests. If nil, a
	// client with a 30-second timeout is used.
	HTTPClient *http.Client

	// Logger receives request diagnostics. If nil, logs are discarded.
	Logger *slog.Logger
}

// Client fetches account NFTs from the Bithomp API.
type Client struct {
	baseURL    string
	token      *secret.Buffer
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Bithomp API client. The base URL is validated
// eagerly so a misconfigured deployment fails at startup rather than
// on the first membership check.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("xrpl: BaseURL is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("xrpl: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("xrpl: base URL %q must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// AccountNFTs returns every NFT the account currently holds, with
// resolved asset metadata. All failures wrap ErrHoldingsUnavailable.
func (c *Client) AccountNFTs(ctx context.Context, account ref.XRPLAccount) ([]NFT, error) {
	// XRPL addresses are base58, URL-safe by construction, so plain
	// string concatenation is fine here.
	requestURL := c.baseURL + "/api/v2/nfts?owner=" + account.String() + "&assets=true"

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("xrpl: building request for %s: %w", account, err)
	}
	if c.token != nil {
		request.Header.Set("x-bithomp-token", c.token.String())
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("xrpl: fetching NFTs for %s: %w: %w", account, ErrHoldingsUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body := netutil.ErrorBody(response.Body)
		c.logger.Warn("bithomp request failed",
			"account", account,
			"status", response.StatusCode,
		)
		return nil, fmt.Errorf("xrpl: fetching NFTs for %s: %w: HTTP %d: %s",
			account, ErrHoldingsUnavailable, response.StatusCode, body)
	}

	var decoded nftsResponse
	if err := netutil.DecodeResponse(response.Body, &decoded); err != nil {
		return nil, fmt.Errorf("xrpl: parsing NFTs for %s: %w: %w", account, ErrHoldingsUnavailable, err)
	}

	c.logger.Debug("fetched account NFTs",
		"account", account,
		"count", len(decoded.NFTs),
	)
	return decoded.NFTs, nil
}

// Holdings implements HoldingsProvider. Tokens are aggregated into one
// holding per (issuer, taxon, traits) combination with the token count,
// which is the granularity the evaluator's quantity aggregation needs.
func (c *Client) Holdings(ctx context.Context, account ref.XRPLAccount) (gate.Holdings, error) {
	nfts, err := c.AccountNFTs(ctx, account)
	if err != nil {
		return nil, err
	}
	return AggregateHoldings(nfts), nil
}

// CollectionImage returns the preview image URL for an issuer/taxon
// collection, taken from the first of the account's tokens that
// matches. Returns "" when the account holds no matching token with a
// resolvable image.
func (c *Client) CollectionImage(ctx context.Context, account ref.XRPLAccount, issuer, taxon string) (string, error) {
	nfts, err := c.AccountNFTs(ctx, account)
	if err != nil {
		return "", err
	}
	for _, nft := range nfts {
		if nft.Issuer != issuer || nft.Taxon() != taxon {
			continue
		}
		if image := nft.ImageURL(); image != "" {
			return image, nil
		}
	}
	return "", nil
}

// AggregateHoldings groups raw tokens into gate holdings. Tokens with
// identical issuer, taxon, and normalized traits merge into a single
// holding with a summed count; tokens that differ in any trait stay
// separate so trait conditions see exact attribute sets.
func AggregateHoldings(nfts []NFT) gate.Holdings {
	byKey := make(map[string]int)
	var order []string
	grouped := make(map[string]gate.Holding)

	for _, nft := range nfts {
		traits := normalizedTraits(nft)
		key := holdingKey(nft.Issuer, nft.Taxon(), traits)
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
			grouped[key] = gate.Holding{
				Issuer: nft.Issuer,
				Taxon:  nft.Taxon(),
				Traits: traits,
			}
		}
		byKey[key]++
	}

	holdings := make(gate.Holdings, 0, len(order))
	for _, key := range order {
		holding := grouped[key]
		holding.Count = byKey[key]
		holdings = append(holdings, holding)
	}
	return holdings
}

func normalizedTraits(nft NFT) map[string]string {
	if nft.Metadata == nil || len(nft.Metadata.Attributes) == 0 {
		return nil
	}
	traits := make(map[string]string, len(nft.Metadata.Attributes))
	for _, attribute := range nft.Metadata.Attributes {
		if attribute.TraitType == "" {
			continue
		}
		traits[attribute.TraitType] = attribute.Normalized()
	}
	if len(traits) == 0 {
		return nil
	}
	return traits
}

// holdingKey builds a deterministic grouping key. Trait order in
// metadata is not stable across tokens, so keys sort by trait name.
func holdingKey(issuer, taxon string, traits map[string]string) string {
	var builder strings.Builder
	builder.WriteString(issuer)
	builder.WriteByte(0)
	builder.WriteString(taxon)

	names := make([]string, 0, len(traits))
	for name := range traits {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		builder.WriteByte(0)
		builder.WriteString(name)
		builder.WriteByte(1)
		builder.WriteString(traits[name])
	}
	return builder.String()
}
