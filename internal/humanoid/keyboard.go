// internal/humanoid/keyboard.go
package humanoid

import (
	"context"
	"fmt"
	"time"
	"unicode"
)

// keyboardNeighbors maps characters to their adjacent keys on a QWERTY
// layout, used to pick plausible wrong characters for typo simulation.
var keyboardNeighbors = map[rune]string{
	'1': "2q", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol0",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiolm", 'l': "kop",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk",
}

// keyBackspace is the control character the surface translates into a
// Backspace key event.
const keyBackspace = "\b"

// Per-character event probabilities for the typing simulation.
const (
	thinkingPauseChance = 0.05
	typoChance          = 0.03
)

// TypeText emits the text one character at a time. Each character is
// followed by a delay drawn from delayFn; with small independent
// probabilities a character is preceded by a thinking pause or replaced by a
// wrong-neighbor/backspace/correct typo sequence.
func (h *Humanoid) TypeText(ctx context.Context, text string, delayFn func() time.Duration) error {
	for _, ch := range text {
		if err := ctx.Err(); err != nil {
			return err
		}

		if h.float64n() < thinkingPauseChance {
			if err := h.surface.Sleep(ctx, h.between(800*time.Millisecond, 2500*time.Millisecond)); err != nil {
				return err
			}
		}

		if h.float64n() < typoChance {
			if err := h.typeWithTypo(ctx, ch, delayFn); err != nil {
				return err
			}
			continue
		}

		if err := h.sendRune(ctx, ch, delayFn); err != nil {
			return err
		}
	}
	return nil
}

// typeWithTypo emits a neighboring wrong character, notices it, backspaces,
// and then types the intended one. Characters without a known neighbor fall
// back to a plain keystroke.
func (h *Humanoid) typeWithTypo(ctx context.Context, ch rune, delayFn func() time.Duration) error {
	neighbors, ok := keyboardNeighbors[unicode.ToLower(ch)]
	if !ok || len(neighbors) == 0 {
		return h.sendRune(ctx, ch, delayFn)
	}

	h.mu.Lock()
	wrong := rune(neighbors[h.rng.Intn(len(neighbors))])
	h.mu.Unlock()
	if unicode.IsUpper(ch) {
		wrong = unicode.ToUpper(wrong)
	}

	if err := h.sendRune(ctx, wrong, delayFn); err != nil {
		return err
	}
	// The pause before noticing the mistake.
	if err := h.surface.Sleep(ctx, h.between(200*time.Millisecond, 600*time.Millisecond)); err != nil {
		return err
	}
	if err := h.surface.SendKeys(ctx, keyBackspace); err != nil {
		return fmt.Errorf("humanoid: sending backspace: %w", err)
	}
	if err := h.surface.Sleep(ctx, delayFn()); err != nil {
		return err
	}
	return h.sendRune(ctx, ch, delayFn)
}

// sendRune dispatches one keystroke followed by its inter-character delay.
func (h *Humanoid) sendRune(ctx context.Context, ch rune, delayFn func() time.Duration) error {
	if err := h.surface.SendKeys(ctx, string(ch)); err != nil {
		return fmt.Errorf("humanoid: sending key %q: %w", ch, err)
	}
	return h.surface.Sleep(ctx, delayFn())
}
