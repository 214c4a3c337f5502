// internal/resolver/resolver.go

// Package resolver maps declarative selector strings to concrete live page
// elements through a fixed chain of resolution strategies with an optional
// result cache.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/page"
)

// ErrElementNotFound is the sentinel wrapped by every exhausted resolution.
var ErrElementNotFound = errors.New("element not found")

// NotFoundError reports an exhausted resolution, naming the last strategy
// that was attempted.
type NotFoundError struct {
	Selector string
	Strategy string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resolver: no element for %q (exhausted at %s strategy)", e.Selector, e.Strategy)
}

// Unwrap ties NotFoundError into errors.Is(err, ErrElementNotFound).
func (e *NotFoundError) Unwrap() error { return ErrElementNotFound }

// UnknownAliasError reports an `@name` reference with no entry in the
// selector set. Unlike a soft miss, alias failure aborts resolution
// immediately.
type UnknownAliasError struct {
	Name string
}

func (e *UnknownAliasError) Error() string {
	return fmt.Sprintf("resolver: unknown global selector @%s", e.Name)
}

// BrowserBack is the virtual selector token that synthesizes a
// back-navigation target instead of resolving a DOM element.
const BrowserBack = "browser_back"

// Current is the virtual selector token resolving to the element under the
// last known pointer position.
const Current = "current"

// Options tunes a single resolution.
type Options struct {
	// PageType scopes alias expansion to a page's named elements before the
	// global set.
	PageType string
	// PointerX/PointerY is the last known pointer position, consumed by the
	// `current` virtual selector.
	PointerX float64
	PointerY float64
	// NoCache bypasses the result cache for this lookup.
	NoCache bool
}

// Result is a successful resolution. Exactly one of Element or the
// BrowserBack flag is meaningful.
type Result struct {
	Element page.Element
	// BrowserBack marks a synthesized back-navigation target; Element is
	// zero in that case.
	BrowserBack bool
}

// Resolver applies the strategy chain against one live page.
type Resolver struct {
	pg     page.Page
	set    schemas.SelectorSet
	rng    *rand.Rand
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]page.Element
}

// New creates a resolver over the given page and selector set. A nil rng
// disables the `:random` token's randomness injection and falls back to the
// first candidate.
func New(pg page.Page, set schemas.SelectorSet, rng *rand.Rand, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		pg:     pg,
		set:    set,
		rng:    rng,
		logger: logger.With(zap.String("component", "resolver")),
		cache:  make(map[string]page.Element),
	}
}

// Resolve maps the selector to a single live element. Strategies are tried
// in fixed order; the first success wins.
func (r *Resolver) Resolve(ctx context.Context, selector string, opts Options) (Result, error) {
	expanded, err := r.expandAlias(selector, opts.PageType)
	if err != nil {
		return Result{}, err
	}

	if expanded == BrowserBack {
		return Result{BrowserBack: true}, nil
	}

	if !opts.NoCache {
		if el, ok := r.cachedLive(ctx, expanded); ok {
			return Result{Element: el}, nil
		}
	}

	el, strategy, err := r.resolveUncached(ctx, expanded, opts)
	if err != nil {
		return Result{}, err
	}

	if cacheable(expanded) && !opts.NoCache {
		r.mu.Lock()
		r.cache[expanded] = el
		r.mu.Unlock()
	}
	r.logger.Debug("Selector resolved",
		zap.String("selector", expanded),
		zap.String("strategy", strategy),
		zap.String("locator", el.Locator))
	return Result{Element: el}, nil
}

// Exists reports whether the selector resolves at all. Alias failures count
// as absent rather than erroring: a condition referencing a missing alias
// simply fails its presence check.
func (r *Resolver) Exists(ctx context.Context, selector string, opts Options) bool {
	opts.NoCache = true
	_, err := r.Resolve(ctx, selector, opts)
	return err == nil
}

// InvalidateCache drops every cached resolution. Called on page transitions.
func (r *Resolver) InvalidateCache() {
	r.mu.Lock()
	r.cache = make(map[string]page.Element)
	r.mu.Unlock()
}

// cachedLive returns the cached element for the key if it is still attached
// to the live tree, invalidating the entry otherwise.
func (r *Resolver) cachedLive(ctx context.Context, key string) (page.Element, bool) {
	r.mu.Lock()
	el, ok := r.cache[key]
	r.mu.Unlock()
	if !ok {
		return page.Element{}, false
	}
	attached, err := r.pg.IsAttached(ctx, el)
	if err != nil || !attached {
		r.mu.Lock()
		delete(r.cache, key)
		r.mu.Unlock()
		return page.Element{}, false
	}
	return el, true
}

// cacheable excludes selectors whose result depends on a random draw or the
// pointer position.
func cacheable(selector string) bool {
	if selector == Current {
		return false
	}
	return !strings.HasSuffix(selector, ":random")
}

// expandAlias replaces a leading `@name` reference with its selector-set
// entry. Page-scoped elements take precedence over the global set.
func (r *Resolver) expandAlias(selector, pageType string) (string, error) {
	trimmed := strings.TrimSpace(selector)
	if !strings.HasPrefix(trimmed, "@") {
		return trimmed, nil
	}
	name := strings.TrimPrefix(trimmed, "@")
	sel, ok := r.set.GlobalSelector(name, pageType)
	if !ok {
		return "", &UnknownAliasError{Name: name}
	}
	return strings.TrimSpace(sel), nil
}

// resolveUncached walks strategies 2-7 on an already-expanded selector,
// returning the element and the name of the strategy that produced it.
func (r *Resolver) resolveUncached(ctx context.Context, selector string, opts Options) (page.Element, string, error) {
	// Strategy 2: named virtual selectors.
	if el, ok, err := r.resolveVirtual(ctx, selector, opts); err != nil {
		return page.Element{}, "virtual", err
	} else if ok {
		return el, "virtual", nil
	}

	// Strategy 3: direct structural match.
	if el, ok := r.queryFirst(ctx, selector); ok {
		return el, "direct", nil
	}

	// Strategy 4: comma-separated fallback list, left to right.
	if strings.Contains(selector, ",") {
		for _, sub := range strings.Split(selector, ",") {
			sub = strings.TrimSpace(sub)
			if sub == "" {
				continue
			}
			if el, ok := r.queryFirst(ctx, sub); ok {
				return el, "fallback-list", nil
			}
		}
	}

	// Strategy 5: text-content match.
	if content, ok := parseTextSelector(selector); ok {
		if el, ok, err := r.resolveByText(ctx, content); err != nil {
			return page.Element{}, "text", err
		} else if ok {
			return el, "text", nil
		}
	}

	// Strategy 6: attribute predicate match.
	if attr, value, substring, ok := parseAttrSelector(selector); ok {
		els, err := r.pg.FindByAttr(ctx, attr, value, substring)
		if err == nil && len(els) > 0 {
			return els[0], "attribute", nil
		}
	}

	// Strategy 7: geometric match.
	if x, y, tol, ok := parsePositionSelector(selector); ok {
		if el, ok, err := r.resolveByPosition(ctx, x, y, tol); err != nil {
			return page.Element{}, "geometric", err
		} else if ok {
			return el, "geometric", nil
		}
	}

	return page.Element{}, "", &NotFoundError{Selector: selector, Strategy: "geometric"}
}

// queryFirst runs a structural query and returns the first match, preferring
// visible candidates.
func (r *Resolver) queryFirst(ctx context.Context, selector string) (page.Element, bool) {
	els, err := r.pg.Query(ctx, selector)
	if err != nil || len(els) == 0 {
		return page.Element{}, false
	}
	for _, el := range els {
		if el.Visible {
			return el, true
		}
	}
	return els[0], true
}

// resolveByText prefers an exact (trimmed) text match; a substring match is
// a second pass over the content-matched candidates only when no exact match
// exists.
func (r *Resolver) resolveByText(ctx context.Context, content string) (page.Element, bool, error) {
	els, err := r.pg.FindByText(ctx, content)
	if err != nil {
		return page.Element{}, false, fmt.Errorf("resolver: text search failed: %w", err)
	}
	want := strings.TrimSpace(content)
	for _, el := range els {
		if strings.TrimSpace(el.Text) == want {
			return el, true, nil
		}
	}
	for _, el := range els {
		if strings.Contains(el.Text, want) {
			return el, true, nil
		}
	}
	return page.Element{}, false, nil
}

// resolveByPosition finds a visible element whose bounding-box center lies
// within tol pixels of (x, y), nearest first.
func (r *Resolver) resolveByPosition(ctx context.Context, x, y, tol float64) (page.Element, bool, error) {
	els, err := r.pg.VisibleElements(ctx)
	if err != nil {
		return page.Element{}, false, fmt.Errorf("resolver: geometry scan failed: %w", err)
	}
	best := -1
	bestDist := math.MaxFloat64
	for i, el := range els {
		d := math.Hypot(el.Box.CenterX()-x, el.Box.CenterY()-y)
		if d <= tol && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return page.Element{}, false, nil
	}
	return els[best], true, nil
}
