package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sys/unix"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"assetgen/internal/config"
	"assetgen/internal/ledger"
)

// CheckCredential reports whether a provider key is configured.
func CheckCredential(name, kind, apiKey string) Result {
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: config.CredentialHint(kind)}
	}
	return Result{Name: name, Passed: true, Detail: "configured (" + maskKey(apiKey) + ")"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatableDirectory passes when path is an accessible directory, or
// does not exist yet but its nearest existing ancestor is writable.
func CheckCreatableDirectory(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
		}
		ancestor = parent
	}
	parent := CheckDirectoryAccess(name, ancestor)
	if !parent.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s)", path, parent.Detail)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckLedger loads and verifies the ledger without taking the run lock, and
// reports whether another run currently holds it.
func CheckLedger(ctx context.Context, backend, path string) Result {
	const name = "Ledger"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "ledger path not configured"}
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		dir := CheckCreatableDirectory(name, filepath.Dir(path))
		if !dir.Passed {
			return dir
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (new, %s backend)", path, ledger.ResolveBackend(backend, path))}
	}

	lock, err := ledger.AcquireLock(path)
	if err != nil {
		if errors.Is(err, ledger.ErrLocked) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (in use by another run)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer func() { _ = lock.Release() }()

	store, err := ledger.OpenStore(ctx, backend, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	l, err := ledger.Open(ctx, store)
	if err != nil {
		_ = store.Close()
		return Result{Name: name, Detail: err.Error()}
	}
	defer l.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries, spent %s)", path, len(l.Entries()), l.Total())}
}

// CheckOpenAI verifies the key and model by fetching the model record. It
// uses a 30-second timeout and a single attempt.
func CheckOpenAI(ctx context.Context, baseURL, apiKey, model string) Result {
	const name = "OpenAI API"
	endpoint, err := url.JoinPath(strings.TrimRight(baseURL, "/"), "models", model)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid base url (%v)", err)}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("model check failed (%v)", err)}
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))

	resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("model %s available", model)}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	case http.StatusNotFound:
		return Result{Name: name, Detail: fmt.Sprintf("model %s not found", model)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("model check failed (%d)", resp.StatusCode)}
	}
}

// CheckLyria verifies the Google key through the Generative Language API.
// Realtime music models are not always listed, so a missing model with a
// valid key still passes.
func CheckLyria(ctx context.Context, apiKey, model string, opts ...option.ClientOption) Result {
	const name = "Google Generative Language API"

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := genai.NewClient(checkCtx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("client setup failed (%v)", err)}
	}
	defer client.Close()

	info, err := client.GenerativeModel(model).Info(checkCtx)
	if err == nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("model %s available", info.Name)}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("key accepted; %s not listed (realtime models may be unlisted)", model)}
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return Result{Name: name, Detail: "auth failed (invalid api key)"}
		}
	}
	return Result{Name: name, Detail: summarizeError(err)}
}

func maskKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// summarizeError produces a human-readable summary for remote check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	return err.Error()
}
