// Package policy evaluates the Extractor's URL filter as data (a Rego
// policy) instead of a hardcoded Go conditional chain, adapted from the
// teacher's internal/policy engine down to the single decision this spec
// needs: may a URL be sent to the Extractor?
package policy

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/open-policy-agent/opa/rego"
	"go.uber.org/zap"
)

//go:embed rego/url_filter.rego
var embeddedPolicy embed.FS

// URLFilter wraps a compiled Rego query deciding whether a URL may be
// handed to the Extractor. Matches spec.md §4.3's blocklist + path-suffix +
// unparsable-URL rules. Both the compiled policy and the dynamic blocklist
// are reloadable at runtime: internal/config.ConfigManager calls Reload when
// the override .rego file changes and SetBlocklist when research.yaml's
// url_blocklist key changes, so an operator can extend the filter without a
// binary rebuild.
type URLFilter struct {
	mu        sync.RWMutex
	query     rego.PreparedEvalQuery
	blocklist []string

	overridePath string
	logger       *zap.Logger
}

// NewURLFilter compiles the embedded policy (or overridePath, when it names
// an existing file) and seeds the dynamic blocklist from cfg.URLBlocklist.
// The rego policy's static blocked_hosts set still applies underneath; the
// dynamic blocklist is evaluated alongside it so a config change needs no
// recompilation.
func NewURLFilter(ctx context.Context, overridePath string, blocklist []string, logger *zap.Logger) (*URLFilter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	q, err := compilePolicy(ctx, overridePath)
	if err != nil {
		return nil, err
	}

	return &URLFilter{
		query:        q,
		blocklist:    blocklist,
		overridePath: overridePath,
		logger:       logger,
	}, nil
}

func compilePolicy(ctx context.Context, overridePath string) (rego.PreparedEvalQuery, error) {
	source, err := loadPolicySource(overridePath)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("load url filter policy: %w", err)
	}

	q, err := rego.New(
		rego.Query("data.research.urlfilter.allow"),
		rego.Module("url_filter.rego", source),
	).PrepareForEval(ctx)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("compile url filter policy: %w", err)
	}
	return q, nil
}

// Reload recompiles the policy from overridePath (or the embedded default
// if absent/unreadable), swapping it in atomically. Called by
// internal/config.ConfigManager's policy handler when the override .rego
// file is created, modified, or removed.
func (f *URLFilter) Reload(ctx context.Context) error {
	q, err := compilePolicy(ctx, f.overridePath)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.query = q
	f.mu.Unlock()
	f.logger.Info("url filter policy reloaded", zap.String("override_path", f.overridePath))
	return nil
}

// SetBlocklist replaces the dynamic blocklist evaluated alongside the
// compiled policy's static blocked_hosts set. Called by
// internal/config.ConfigManager's research.yaml handler when url_blocklist
// changes.
func (f *URLFilter) SetBlocklist(blocklist []string) {
	f.mu.Lock()
	f.blocklist = blocklist
	f.mu.Unlock()
	f.logger.Info("url filter blocklist updated", zap.Int("entries", len(blocklist)))
}

func loadPolicySource(overridePath string) (string, error) {
	if overridePath != "" {
		b, err := os.ReadFile(overridePath)
		if err == nil {
			return string(b), nil
		}
	}
	b, err := embeddedPolicy.ReadFile("rego/url_filter.rego")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Allow reports whether u passes the filter: parsable, host not containing
// a blocked fragment, and path not ending in a blocked document suffix.
func (f *URLFilter) Allow(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}

	f.mu.RLock()
	query := f.query
	blocklist := f.blocklist
	f.mu.RUnlock()

	input := map[string]interface{}{
		"host":      strings.ToLower(parsed.Host),
		"path":      strings.ToLower(parsed.Path),
		"blocklist": blocklist,
	}

	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		f.logger.Warn("url filter evaluation failed, denying", zap.Error(err), zap.String("url", rawURL))
		return false
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false
	}
	allow, _ := results[0].Expressions[0].Value.(bool)
	return allow
}

// FilterURLs returns the subset of urls that Allow accepts, preserving
// order.
func (f *URLFilter) FilterURLs(ctx context.Context, urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if f.Allow(ctx, u) {
			out = append(out, u)
		}
	}
	return out
}
