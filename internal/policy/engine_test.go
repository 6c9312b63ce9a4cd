package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllow_BlocksStaticHostAndSuffix(t *testing.T) {
	f, err := NewURLFilter(context.Background(), "", nil, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, f.Allow(context.Background(), "https://www.reddit.com/r/test"))
	assert.False(t, f.Allow(context.Background(), "https://example.com/report.pdf"))
	assert.True(t, f.Allow(context.Background(), "https://example.com/article"))
}

func TestAllow_UnparsableURLDenied(t *testing.T) {
	f, err := NewURLFilter(context.Background(), "", nil, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, f.Allow(context.Background(), "://not-a-url"))
}

func TestSetBlocklist_ExtendsBlockingLive(t *testing.T) {
	f, err := NewURLFilter(context.Background(), "", nil, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, f.Allow(context.Background(), "https://blocked-by-config.example/page"))

	f.SetBlocklist([]string{"blocked-by-config.example"})
	assert.False(t, f.Allow(context.Background(), "https://blocked-by-config.example/page"))

	f.SetBlocklist(nil)
	assert.True(t, f.Allow(context.Background(), "https://blocked-by-config.example/page"))
}

func TestReload_PicksUpOverrideFile(t *testing.T) {
	dir := t.TempDir()
	overridePath := filepath.Join(dir, "url_filter.rego")

	f, err := NewURLFilter(context.Background(), overridePath, nil, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, f.Allow(context.Background(), "https://only-blocked-after-override.example/page"))

	override := `package research.urlfilter

default allow = false

allow {
	not contains(lower(input.host), "only-blocked-after-override.example")
}`
	require.NoError(t, os.WriteFile(overridePath, []byte(override), 0o644))
	require.NoError(t, f.Reload(context.Background()))

	assert.False(t, f.Allow(context.Background(), "https://only-blocked-after-override.example/page"))
}
