package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"TabScanner/internal/config"
	"TabScanner/internal/ports"
	"TabScanner/internal/source"
)

// Sites serve real data only to requests that look like a signed-in browser,
// so the fetcher presents a desktop Chrome identity.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher performs the authenticated bookmark-endpoint request for a source,
// or reads the operator's pre-captured response in manual mode.
type Fetcher struct {
	client *http.Client
	creds  ports.CredentialProvider
	logger *slog.Logger
}

// New wires an HTTP client and a credential provider; the client defaults to
// a 15 second timeout.
func New(client *http.Client, creds ports.CredentialProvider, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, creds: creds, logger: logger}
}

// Fetch returns the raw response content for the source. In debug mode the
// body is additionally persisted verbatim, independent of what the parser
// later makes of it.
func (f *Fetcher) Fetch(ctx context.Context, cfg config.SourceConfig, mode source.Mode, debug bool) ([]byte, error) {
	if mode == source.ModeManual {
		return f.readCapture(cfg)
	}

	creds, err := f.creds.Credentials(ctx, cfg.Domain)
	if err != nil {
		return nil, err
	}

	var lastReason string
	var lastBody []byte
	for _, endpoint := range cfg.Endpoints {
		body, reason, err := f.tryEndpoint(ctx, cfg, endpoint, creds.CookieHeader)
		if err != nil {
			lastReason = err.Error()
			continue
		}
		if reason != "" {
			lastReason = reason
			lastBody = body
			continue
		}

		f.dumpDebug(cfg, body, debug)
		return body, nil
	}

	f.dumpDebug(cfg, lastBody, debug)
	return nil, fmt.Errorf("%s: %w", lastReason, ports.ErrSourceUnavailable)
}

// tryEndpoint returns (body, "", nil) on usable data, (body, reason, nil)
// when the endpoint answered but with a block/login page, and an error for
// transport failures.
func (f *Fetcher) tryEndpoint(ctx context.Context, cfg config.SourceConfig, endpoint, cookieHeader string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", cfg.AcceptLanguage)
	req.Header.Set("Cookie", cookieHeader)
	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return body, fmt.Sprintf("endpoint answered %s", resp.Status), nil
	}
	if final := resp.Request.URL; final != nil && strings.Contains(strings.ToLower(final.String()), "login") {
		return body, "redirected to login page", nil
	}
	if reason := loginWall(cfg, body); reason != "" {
		return body, reason, nil
	}

	f.debug("endpoint ok", "source", cfg.Name, "endpoint", endpoint, "bytes", len(body))
	return body, "", nil
}

// loginWall applies the per-source heuristics for a login prompt served in
// place of data: a suspiciously short body or known login-widget markers.
func loginWall(cfg config.SourceConfig, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if cfg.MinBodyBytes > 0 && len(trimmed) < cfg.MinBodyBytes {
		return fmt.Sprintf("body too short (%d bytes), session expired", len(trimmed))
	}
	for _, marker := range cfg.LoginMarkers {
		if strings.Contains(trimmed, marker) {
			return "login prompt detected"
		}
	}
	return ""
}

func (f *Fetcher) readCapture(cfg config.SourceConfig) ([]byte, error) {
	raw, err := os.ReadFile(cfg.CapturePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", cfg.CapturePath, ports.ErrCaptureMissing)
		}
		return nil, fmt.Errorf("read capture %s: %w", cfg.CapturePath, err)
	}
	return raw, nil
}

func (f *Fetcher) dumpDebug(cfg config.SourceConfig, body []byte, debug bool) {
	if !debug || len(body) == 0 || cfg.DebugPath == "" {
		return
	}
	if err := os.WriteFile(cfg.DebugPath, body, 0o644); err != nil {
		f.debug("debug dump failed", "source", cfg.Name, "path", cfg.DebugPath, "error", err)
		return
	}
	f.debug("debug dump written", "source", cfg.Name, "path", cfg.DebugPath)
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
