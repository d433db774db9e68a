// Package seeder generates realistic analytics traffic for development:
// GTM-style queue entries pushed through a capture agent so the whole
// pipeline lights up without a real site.
package seeder

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/sizzlebits/layerlens/cli/internal/client"
)

// Config controls one seeding run.
type Config struct {
	Queue string
	Count int
	Seed  int64
}

// weighted event mix roughly matching what a retail site's dataLayer sees.
var eventMix = []struct {
	name   string
	weight int
	gen    func(f *gofakeit.Faker) map[string]interface{}
}{
	{"page_view", 40, genPageView},
	{"gtm.click", 20, genClick},
	{"gtm.scrollDepth", 15, genScroll},
	{"view_item", 10, genViewItem},
	{"add_to_cart", 8, genAddToCart},
	{"begin_checkout", 4, genBeginCheckout},
	{"purchase", 3, genPurchase},
}

// Generate produces n queue entries from the weighted mix. A fixed seed
// yields a reproducible stream.
func Generate(cfg Config) []map[string]interface{} {
	f := gofakeit.New(cfg.Seed)
	rng := rand.New(rand.NewSource(cfg.Seed))

	total := 0
	for _, e := range eventMix {
		total += e.weight
	}

	out := make([]map[string]interface{}, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		pick := rng.Intn(total)
		for _, e := range eventMix {
			if pick < e.weight {
				entry := e.gen(f)
				entry["event"] = e.name
				out = append(out, entry)
				break
			}
			pick -= e.weight
		}
	}
	return out
}

// Run pushes generated entries through the capture agent one at a time,
// the way a page script would.
func Run(ctx context.Context, capture *client.Capture, cfg Config, progress func(done, total int)) error {
	entries := Generate(cfg)
	for i, entry := range entries {
		if _, err := capture.Push(ctx, cfg.Queue, entry); err != nil {
			return fmt.Errorf("pushing entry %d/%d: %w", i+1, len(entries), err)
		}
		if progress != nil {
			progress(i+1, len(entries))
		}
	}
	return nil
}

func genPageView(f *gofakeit.Faker) map[string]interface{} {
	return map[string]interface{}{
		"page_location": f.URL(),
		"page_title":    f.Sentence(4),
		"page_referrer": f.URL(),
	}
}

func genClick(f *gofakeit.Faker) map[string]interface{} {
	return map[string]interface{}{
		"gtm.element":        fmt.Sprintf("<button#%s>", f.Word()),
		"gtm.elementClasses": f.Word() + " " + f.Word(),
		"gtm.elementId":      f.Word(),
	}
}

func genScroll(f *gofakeit.Faker) map[string]interface{} {
	return map[string]interface{}{
		"gtm.scrollThreshold": f.RandomInt([]int{25, 50, 75, 100}),
		"gtm.scrollUnits":     "percent",
	}
}

func genViewItem(f *gofakeit.Faker) map[string]interface{} {
	return map[string]interface{}{
		"ecommerce": map[string]interface{}{
			"currency": f.CurrencyShort(),
			"value":    f.Price(1, 500),
			"items":    []interface{}{genItem(f)},
		},
	}
}

func genAddToCart(f *gofakeit.Faker) map[string]interface{} {
	return map[string]interface{}{
		"ecommerce": map[string]interface{}{
			"currency": f.CurrencyShort(),
			"value":    f.Price(1, 500),
			"items":    []interface{}{genItem(f)},
		},
	}
}

func genBeginCheckout(f *gofakeit.Faker) map[string]interface{} {
	items := []interface{}{genItem(f)}
	if f.Bool() {
		items = append(items, genItem(f))
	}
	return map[string]interface{}{
		"ecommerce": map[string]interface{}{
			"currency": f.CurrencyShort(),
			"value":    f.Price(10, 1000),
			"items":    items,
		},
	}
}

func genPurchase(f *gofakeit.Faker) map[string]interface{} {
	return map[string]interface{}{
		"ecommerce": map[string]interface{}{
			"transaction_id": f.UUID(),
			"currency":       f.CurrencyShort(),
			"value":          f.Price(10, 1000),
			"tax":            f.Price(1, 50),
			"shipping":       f.Price(0, 20),
			"items":          []interface{}{genItem(f), genItem(f)},
		},
	}
}

func genItem(f *gofakeit.Faker) map[string]interface{} {
	return map[string]interface{}{
		"item_id":   fmt.Sprintf("SKU-%d", f.Number(10000, 99999)),
		"item_name": f.ProductName(),
		"price":     f.Price(1, 500),
		"quantity":  f.Number(1, 3),
	}
}
