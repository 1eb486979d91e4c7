package credentials

import (
	"context"
	"fmt"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all"
)

// KookyReader is the generic cross-browser fallback. It defers to the kooky
// library, which knows the store layouts (and keychains) of Chrome-family
// browsers, Firefox, and Safari.
type KookyReader struct {
	browser string
}

// NewKookyReader restricts extraction to the configured browser when the
// name is recognized; an empty name searches all stores.
func NewKookyReader(browser string) *KookyReader {
	return &KookyReader{browser: browser}
}

// Name identifies the strategy inside the provider chain.
func (k *KookyReader) Name() string {
	return "kooky"
}

// Cookies reads valid cookies for the domain from local browser profiles.
func (k *KookyReader) Cookies(_ context.Context, domain string) (map[string]string, error) {
	return k.readStores(kooky.FindAllCookieStores(), domain)
}

// readStores walks the discovered cookie stores, skipping browsers other
// than the configured one. A store that fails to read is skipped; the
// remaining stores may still hold a usable session.
func (k *KookyReader) readStores(stores []kooky.CookieStore, domain string) (map[string]string, error) {
	filters := []kooky.Filter{kooky.Valid, kooky.DomainHasSuffix(domain)}

	out := map[string]string{}
	for _, store := range stores {
		if k.browser != "" && store.Browser() != k.browser {
			continue
		}

		cookies, err := store.ReadCookies(filters...)
		store.Close()
		if err != nil {
			continue
		}
		for _, c := range cookies {
			out[c.Name] = c.Value
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no cookies found for %s", domain)
	}
	return out, nil
}
