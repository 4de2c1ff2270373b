package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/config"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/server"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func release(t *testing.T) string {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"bundle.yaml": "name: coins\npackages:\n  - account: \"0xa11ce\"\n    path: coins\n  - account: \"0xa11ce\"\n    path: market\n",
		"coins/Package.toml": "[package]\nname = \"Coins\"\nupgrade_policy = \"compatible\"\nmodules = [\"coin\"]\n\n" +
			"[dependencies]\nMoveStdlib = { account = \"0x1\" }\n",
		"coins/bytecode_modules/coin.mv": "coin",
		"market/Package.toml": "[package]\nname = \"Market\"\nupgrade_policy = \"immutable\"\n\n" +
			"[dependencies]\nCoins = { account = \"0xa11ce\" }\n",
		"market/bytecode_modules/market.mv": "market",
	})
	return filepath.Join(root, "bundle.yaml")
}

func testServer(t *testing.T) string {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false

	s, err := server.NewServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", release(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Bundle coins")
	assert.Contains(t, out, "Coins")
	assert.Contains(t, out, "immutable")
	assert.Contains(t, out, "0x1::MoveStdlib")

	out, err = run(t, "inspect", "--json", release(t))
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "coins"`)
	assert.Contains(t, out, `"bytes": 4`)
}

func TestInspectMissing(t *testing.T) {
	_, err := run(t, "inspect", filepath.Join(t.TempDir(), "bundle.yaml"))
	assert.Error(t, err)
}

func TestPublishAndGet(t *testing.T) {
	url := testServer(t)

	out, err := run(t, "publish", "--server", url, release(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Coins upgrade 0")
	assert.Contains(t, out, "Market upgrade 0")

	out, err = run(t, "get", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "1 accounts, 2 packages, 2 modules")

	out, err = run(t, "get", "--server", url, "0xa11ce")
	require.NoError(t, err)
	assert.Contains(t, out, "Coins")
	assert.Contains(t, out, "Market")

	out, err = run(t, "get", "--server", url, "0xa11ce", "Market")
	require.NoError(t, err)
	assert.Contains(t, out, "policy:   immutable")
	assert.Contains(t, out, "0xa11ce::Coins")

	// republishing the immutable package is rejected
	_, err = run(t, "publish", "--server", url, "--package", "Market", release(t))
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestPublishMissingDependency(t *testing.T) {
	url := testServer(t)
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"bundle.yaml": "name: broken\npackages:\n  - account: \"0xa11ce\"\n    path: pkg\n",
		"pkg/Package.toml": "[package]\nname = \"Broken\"\n\n[dependencies]\nNope = { account = \"0xb0b\" }\n",
		"pkg/bytecode_modules/broken.mv": "broken",
	})

	_, err := run(t, "publish", "--server", url, filepath.Join(root, "bundle.yaml"))
	require.Error(t, err)
	assert.Equal(t, 5, exitCode(err))
}

func TestPublishUnknownPackage(t *testing.T) {
	url := testServer(t)
	_, err := run(t, "publish", "--server", url, "--package", "Nope", release(t))
	assert.ErrorContains(t, err, `no package "Nope"`)
}

func TestGetNotFound(t *testing.T) {
	url := testServer(t)
	_, err := run(t, "get", "--server", url, "0xdead")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestEventsURL(t *testing.T) {
	u, err := eventsURL("https://registry.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "wss://registry.example.com/registry/events", u)

	u, err = eventsURL("http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8000/registry/events", u)
}

func TestWatch(t *testing.T) {
	url := testServer(t)
	bundlePath := release(t)

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := run(t, "watch", "--server", url, "-n", "2")
		done <- result{out, err}
	}()

	// compatible upgrades always succeed; keep publishing until the
	// subscriber has seen two of them
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case r := <-done:
			require.NoError(t, r.err)
			assert.Contains(t, r.out, "published 0xa11ce::Coins")
			return
		case <-ticker.C:
			_, err := run(t, "publish", "--server", url, "--package", "Coins", bundlePath)
			require.NoError(t, err)
		case <-deadline:
			t.Fatal("watch did not exit")
		}
	}
}
