package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadRules_DisallowedPath(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/robots.txt", r.URL.Path)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /checkout\nCrawl-delay: 2\n"))
	}))
	defer srv.Close()

	rules := LoadRules(context.Background(), srv.URL, "shopsage-bot/1.0", zap.NewNop())
	require.NotNil(t, rules)
	require.False(t, rules.Allowed("/checkout"))
	require.False(t, rules.Allowed("/checkout/cart"))
	require.True(t, rules.Allowed("/products"))
	require.Equal(t, 2*time.Second, rules.Delay())
}

func TestLoadRules_MissingRobotsIsPermissive(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rules := LoadRules(context.Background(), srv.URL, "shopsage-bot/1.0", zap.NewNop())
	require.True(t, rules.Allowed("/anything"))
	require.Zero(t, rules.Delay())
}

func TestLoadRules_UnreachableHostIsPermissive(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	rules := LoadRules(ctx, "http://127.0.0.1:1", "shopsage-bot/1.0", zap.NewNop())
	require.True(t, rules.Allowed("/"))
}

func TestRules_NilIsPermissive(t *testing.T) {
	t.Parallel()

	var rules *Rules
	require.True(t, rules.Allowed("/anything"))
	require.Zero(t, rules.Delay())
	require.True(t, PermissiveRules().Allowed(""))
}
