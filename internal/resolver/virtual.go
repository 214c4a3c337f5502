// internal/resolver/virtual.go
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/xkilldash9x/drover/internal/page"
)

// virtualSuffixRe matches a selector ending in one of the reserved candidate
// set filters, capturing the optional base selector.
var virtualSuffixRe = regexp.MustCompile(`^(.*?):(random|visible|inviewport|first|last|nth\((\d+)\))$`)

// resolveVirtual handles strategy 2: reserved tokens that select from a
// candidate set (`:random`, `:visible`, `:inviewport`, `:first`, `:last`,
// `:nth(n)`) or address the pointer position (`current`). Returns ok=false
// when the selector carries no virtual token.
func (r *Resolver) resolveVirtual(ctx context.Context, selector string, opts Options) (page.Element, bool, error) {
	if selector == Current {
		el, ok, err := r.resolveByPosition(ctx, opts.PointerX, opts.PointerY, currentTolerance)
		if err != nil {
			return page.Element{}, false, err
		}
		if !ok {
			return page.Element{}, false, &NotFoundError{Selector: selector, Strategy: "virtual"}
		}
		return el, true, nil
	}

	m := virtualSuffixRe.FindStringSubmatch(selector)
	if m == nil {
		return page.Element{}, false, nil
	}
	base, token, nthArg := m[1], m[2], m[3]

	candidates, err := r.candidates(ctx, base)
	if err != nil {
		return page.Element{}, false, err
	}
	if len(candidates) == 0 {
		return page.Element{}, false, &NotFoundError{Selector: selector, Strategy: "virtual"}
	}

	switch {
	case token == "random":
		idx := 0
		if r.rng != nil {
			r.mu.Lock()
			idx = r.rng.Intn(len(candidates))
			r.mu.Unlock()
		}
		return candidates[idx], true, nil
	case token == "visible":
		for _, el := range candidates {
			if el.Visible {
				return el, true, nil
			}
		}
	case token == "inviewport":
		vp, err := r.pg.Viewport(ctx)
		if err != nil {
			return page.Element{}, false, fmt.Errorf("resolver: viewport lookup failed: %w", err)
		}
		for _, el := range candidates {
			if el.Visible && vp.Contains(el.Box) {
				return el, true, nil
			}
		}
	case token == "first":
		return candidates[0], true, nil
	case token == "last":
		return candidates[len(candidates)-1], true, nil
	default: // nth(n)
		n, convErr := strconv.Atoi(nthArg)
		if convErr != nil || n < 0 || n >= len(candidates) {
			return page.Element{}, false, &NotFoundError{Selector: selector, Strategy: "virtual"}
		}
		return candidates[n], true, nil
	}

	return page.Element{}, false, &NotFoundError{Selector: selector, Strategy: "virtual"}
}

// currentTolerance is the hit radius, in pixels, for the `current` token.
const currentTolerance = 25.0

// candidates builds the candidate set for a virtual token: the base
// selector's structural matches, or every visible element when no base is
// given.
func (r *Resolver) candidates(ctx context.Context, base string) ([]page.Element, error) {
	if base == "" {
		els, err := r.pg.VisibleElements(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolver: candidate scan failed: %w", err)
		}
		return els, nil
	}
	els, err := r.pg.Query(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("resolver: candidate query %q failed: %w", base, err)
	}
	return els, nil
}
