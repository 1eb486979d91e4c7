package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"TabScanner/internal/domain"
	"TabScanner/internal/ports"
)

// Strategy extracts raw cookie pairs for a domain from one browser store.
type Strategy interface {
	Name() string
	Cookies(ctx context.Context, domain string) (map[string]string, error)
}

// Provider walks an ordered strategy list and stops at the first success.
type Provider struct {
	strategies []Strategy
	logger     *slog.Logger
}

var _ ports.CredentialProvider = (*Provider)(nil)

// NewProvider wires the strategies in priority order.
func NewProvider(logger *slog.Logger, strategies ...Strategy) *Provider {
	return &Provider{strategies: strategies, logger: logger}
}

// Credentials returns a single-use credential set for the domain. Cookie
// values that cannot be represented in Latin-1 are percent-encoded first; raw
// Unicode is illegal in HTTP header values and decoding is the receiving
// site's concern.
func (p *Provider) Credentials(ctx context.Context, host string) (domain.CredentialSet, error) {
	for _, strategy := range p.strategies {
		cookies, err := strategy.Cookies(ctx, host)
		if err != nil {
			p.debug("strategy failed", "strategy", strategy.Name(), "domain", host, "error", err)
			continue
		}
		if len(cookies) == 0 {
			p.debug("strategy found nothing", "strategy", strategy.Name(), "domain", host)
			continue
		}

		p.debug("strategy succeeded", "strategy", strategy.Name(), "domain", host, "cookies", len(cookies))
		return domain.CredentialSet{Domain: host, CookieHeader: buildHeader(cookies)}, nil
	}

	return domain.CredentialSet{}, fmt.Errorf("%s: %w", host, ports.ErrNoCredentials)
}

func buildHeader(cookies map[string]string) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+headerSafe(cookies[name]))
	}
	return strings.Join(pairs, "; ")
}

// headerSafe passes Latin-1-representable values through unchanged and
// percent-encodes everything else byte by byte.
func headerSafe(value string) string {
	for _, r := range value {
		if r > 0xFF {
			return percentEncode(value)
		}
	}
	return value
}

func percentEncode(value string) string {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

func (p *Provider) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
