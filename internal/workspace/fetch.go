package workspace

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-getter"
	"github.com/hashicorp/go-safetemp"
	"pkt.systems/pslog"
)

// ErrRegistrySource is returned for registry addresses, which need
// terraform init to resolve.
var ErrRegistrySource = errors.New("registry module sources are not supported; run terraform init and point at .terraform/modules")

// Resolve returns a local directory for source. Local paths are made
// absolute. Anything else go-getter understands is downloaded once into
// cacheDir and reused on later calls.
func Resolve(ctx context.Context, source, cacheDir string) (string, error) {
	s := strings.TrimSpace(source)
	if s == "" {
		return "", fmt.Errorf("empty workspace source")
	}
	if isLocalPath(s) {
		abs, err := filepath.Abs(strings.TrimPrefix(s, "file://"))
		if err != nil {
			return "", err
		}
		if fi, err := os.Stat(abs); err == nil && fi.IsDir() {
			return abs, nil
		}
		return "", fmt.Errorf("workspace path not found: %s", abs)
	}
	if isRegistryAddress(s) {
		return "", fmt.Errorf("%s: %w", s, ErrRegistrySource)
	}
	if cacheDir == "" {
		return "", fmt.Errorf("cache dir required for remote source %s", s)
	}
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	dest := filepath.Join(cacheDir, fingerprint(s))
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		return dest, nil
	}

	tmp, closer, err := safetemp.Dir(cacheDir, "fetch-")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer func() { _ = closer.Close() }()

	pslog.Ctx(ctx).Info("fetching workspace source", "source", s, "dest", dest)
	httpClient := cleanhttp.DefaultClient()
	client := &getter.Client{
		Ctx:  ctx,
		Src:  s,
		Dst:  tmp,
		Mode: getter.ClientModeAny,
		Getters: map[string]getter.Getter{
			"http":  &getter.HttpGetter{Netrc: true, Client: httpClient},
			"https": &getter.HttpGetter{Netrc: true, Client: httpClient},
			"git":   &getter.GitGetter{},
			"file":  &getter.FileGetter{Copy: true},
		},
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetch workspace source: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("cache move: %w", err)
	}
	return dest, nil
}

func fingerprint(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

func isLocalPath(s string) bool {
	for _, p := range []string{"./", "../", "/", "file://"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return s == "." || s == ".."
}

// isRegistryAddress matches registry.terraform.io/... and the
// namespace/name/provider shorthand.
func isRegistryAddress(s string) bool {
	if strings.HasPrefix(s, "registry.terraform.io/") || strings.HasPrefix(s, "registry.opentofu.org/") {
		return true
	}
	return !strings.Contains(s, "://") && !strings.Contains(s, "::") && strings.Count(s, "/") == 2
}
