// Package analysis serves roasts for a URL, calling the language model at most once
// per normalized URL within the cache lifetime.
package analysis

import (
	"context"
	"strings"

	"github.com/ckiertz4887/website-roast/internal/cache"
	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/keys"
)

const (
	blockedMessage = "This site cannot be roasted"
	blockedDetails = "We only roast corporate websites, not... whatever that is. Keep it classy! 🎩"
)

// Filter decides whether a URL may be roasted
type Filter interface {
	IsBlocked(url string) bool
}

// Gateway fronts a core.Analyzer with the content filter and the analysis cache
type Gateway struct {
	filter   Filter
	cache    *cache.Store[core.Analysis]
	analyzer core.Analyzer
}

// New creates an analysis gateway
func New(filter Filter, store *cache.Store[core.Analysis], analyzer core.Analyzer) *Gateway {
	return &Gateway{
		filter:   filter,
		cache:    store,
		analyzer: analyzer,
	}
}

// Analyze returns the roast for url and whether it came from the cache.
//
// Empty URLs are a validation error and blocked URLs a policy error; neither reaches
// the cache or the model. Upstream failures are returned unchanged and not cached.
func (g *Gateway) Analyze(ctx context.Context, url string) (*core.Analysis, core.CacheStatus, error) {
	if strings.TrimSpace(url) == "" {
		return nil, core.CacheMiss, core.NewValidationError(`Missing "url" in request body`)
	}

	log := core.Logger(ctx)
	if g.filter.IsBlocked(url) {
		log.Info("analysis blocked by content filter", "url", url)
		return nil, core.CacheMiss, core.NewPolicyError(blockedMessage, blockedDetails)
	}

	key := keys.AnalysisKey(url)
	result, status, err := g.cache.Do(ctx, key, func(ctx context.Context) (core.Analysis, error) {
		log.Info("analysis cache miss, roasting website", "url", url)
		a, err := g.analyzer.Analyze(ctx, url)
		if err != nil {
			return core.Analysis{}, err
		}
		return *a, nil
	})
	if err != nil {
		log.Error("analysis failed", "url", url, "error", err)
		return nil, status, err
	}

	if status == core.CacheHit {
		log.Info("analysis cache hit", "url", url)
	}
	return &result, status, nil
}
