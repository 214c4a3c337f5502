// api/schemas/scenario_test.go
package schemas

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
	"website": {"name": "Example Shop", "domain": "shop.example.test", "type": "ecommerce"},
	"selectors": {
		"global": {
			"search_box": "input[name=q]",
			"go_back": "browser_back"
		},
		"pages": {
			"home": {
				"identifiers": ["#home-hero"],
				"elements": {"search_box": "#home-search"}
			},
			"product": {
				"identifiers": [".product-detail", "#add-to-cart"]
			}
		}
	},
	"scenarios": {
		"browse_and_buy": {
			"id": "browse_and_buy",
			"name": "Browse and buy",
			"goals": {
				"required_metrics": {"products_viewed": 3},
				"optional_metrics": {"searches": 1},
				"session_duration": {"min": 60000, "max": 600000}
			},
			"pages": {
				"home": {
					"stayDuration": "5-15s",
					"entryActions": [{"type": "scroll", "distance": 300}],
					"actions": {
						"navigation": [{
							"name": "open_product",
							"probability": 0.6,
							"microSequence": [
								{"type": "move", "target": ".product-card:random", "pattern": "natural"},
								{"type": "click", "target": "current"}
							],
							"impact": {"products_viewed": 1},
							"targetPage": "product"
						}],
						"nonNavigation": [{
							"name": "search",
							"probability": 0.4,
							"conditions": {"minTimeOnPage": 2000, "elementExists": "@search_box"},
							"microSequence": [
								{"type": "type", "target": "@search_box", "text": "widgets", "clearFirst": true}
							],
							"impact": {"searches": 1}
						}]
					}
				},
				"product": {
					"stayDuration": "20-40s",
					"actions": {
						"navigation": [{
							"name": "back_home",
							"probability": 1,
							"microSequence": [{"type": "click", "target": "@go_back"}],
							"targetPage": "home"
						}]
					}
				}
			}
		}
	}
}`

func TestParseWebsiteConfig(t *testing.T) {
	cfg, err := ParseWebsiteConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "Example Shop", cfg.Website.Name)
	require.Contains(t, cfg.Scenarios, "browse_and_buy")

	sc := cfg.Scenarios["browse_and_buy"]
	assert.Equal(t, 3.0, sc.Goals.RequiredMetrics["products_viewed"])
	require.NotNil(t, sc.Goals.SessionDuration)
	assert.Equal(t, int64(600000), sc.Goals.SessionDuration.Max)

	home := sc.Pages["home"]
	assert.Equal(t, "5-15s", home.StayDuration)
	require.Len(t, home.EntryActions, 1)
	assert.Equal(t, MicroScroll, home.EntryActions[0].Kind)

	all := home.Actions.All()
	require.Len(t, all, 2)
	// Navigation actions come first in the combined candidate list.
	assert.Equal(t, "open_product", all[0].Name)
	assert.Equal(t, "product", all[0].TargetPage)
	require.NotNil(t, all[1].Conditions)
	assert.Equal(t, int64(2000), all[1].Conditions.MinTimeOnPage)
}

func TestParseWebsiteConfig_Invalid(t *testing.T) {
	t.Run("Malformed", func(t *testing.T) {
		_, err := ParseWebsiteConfig([]byte("{nope"))
		assert.Error(t, err)
	})
	t.Run("NoScenarios", func(t *testing.T) {
		_, err := ParseWebsiteConfig([]byte(`{"website": {"name": "x"}, "scenarios": {}}`))
		assert.Error(t, err)
	})
	t.Run("ScenarioWithoutPages", func(t *testing.T) {
		_, err := ParseWebsiteConfig([]byte(`{"scenarios": {"s": {"id": "s"}}}`))
		assert.Error(t, err)
	})
	t.Run("ProbabilityOutOfRange", func(t *testing.T) {
		_, err := ParseWebsiteConfig([]byte(`{"scenarios": {"s": {"id": "s", "pages": {
			"home": {"actions": {"navigation": [{"name": "a", "probability": 1.5, "microSequence": []}]}}
		}}}}`))
		assert.Error(t, err)
	})
	t.Run("UnknownMicroKind", func(t *testing.T) {
		_, err := ParseWebsiteConfig([]byte(`{"scenarios": {"s": {"id": "s", "pages": {
			"home": {"actions": {"navigation": [{"name": "a", "probability": 0.5,
				"microSequence": [{"type": "teleport"}]}]}}
		}}}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "teleport")
	})
}

func TestGlobalSelector(t *testing.T) {
	set := SelectorSet{
		Global: map[string]string{"search": "#global-search", "menu": "#menu"},
		Pages: map[string]PageSelectors{
			"home": {Elements: map[string]string{"search": "#home-search"}},
		},
	}

	sel, ok := set.GlobalSelector("search", "home")
	require.True(t, ok)
	assert.Equal(t, "#home-search", sel, "page-scoped element takes precedence")

	sel, ok = set.GlobalSelector("search", "product")
	require.True(t, ok)
	assert.Equal(t, "#global-search", sel)

	sel, ok = set.GlobalSelector("menu", "home")
	require.True(t, ok)
	assert.Equal(t, "#menu", sel)

	_, ok = set.GlobalSelector("missing", "home")
	assert.False(t, ok)
}

func TestActionGroups_All(t *testing.T) {
	g := ActionGroups{
		Navigation:    []Action{{Name: "nav"}},
		NonNavigation: []Action{{Name: "stay"}},
	}
	all := g.All()
	require.Len(t, all, 2)
	assert.Equal(t, "nav", all[0].Name)
	assert.Equal(t, "stay", all[1].Name)
	assert.Empty(t, ActionGroups{}.All())
}

func FuzzParseWebsiteConfig(f *testing.F) {
	f.Add([]byte(sampleConfig))
	f.Add([]byte(`{"scenarios": {}}`))
	f.Fuzz(func(t *testing.T, data []byte) {
		cons := fuzz.NewConsumer(data)
		raw, err := cons.GetBytes()
		if err != nil {
			return
		}
		// Must never panic; errors are fine.
		cfg, err := ParseWebsiteConfig(raw)
		if err == nil && cfg != nil {
			if len(cfg.Scenarios) == 0 {
				t.Fatal("accepted config without scenarios")
			}
		}
	})
}
