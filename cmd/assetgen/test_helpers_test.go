package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"assetgen/internal/config"
	"assetgen/internal/producer"
	"assetgen/internal/producer/image"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	assetsDir  string
	catalogDir string
	ledgerPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	return setupCLITestEnvWithKey(t, "sk-test")
}

// setupCLITestEnvWithKey writes a config with the given OpenAI key; an empty
// key leaves image jobs without credentials.
func setupCLITestEnvWithKey(t *testing.T, openAIKey string) *cliTestEnv {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		assetsDir:  filepath.Join(base, "assets"),
		catalogDir: filepath.Join(base, "catalogs"),
		ledgerPath: filepath.Join(base, "state", "ledger.json"),
	}
	if err := os.MkdirAll(env.catalogDir, 0o755); err != nil {
		t.Fatalf("mkdir catalogs: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nassets_dir = %q\ncatalog_dir = %q\nledger_path = %q\nlog_dir = %q\n\n",
		env.assetsDir, env.catalogDir, env.ledgerPath, filepath.Join(base, "logs"))
	b.WriteString("[budget]\ncap = 0.10\n\n[throttle]\ninterval_seconds = 0\n\n")
	if openAIKey != "" {
		fmt.Fprintf(&b, "[openai]\napi_key = %q\n\n", openAIKey)
	}
	b.WriteString("[lyria]\napi_key = \"g-test\"\n")
	if err := os.WriteFile(env.configPath, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

// writeCatalog writes an image catalog with one job per id.
func (e *cliTestEnv) writeCatalog(t *testing.T, name string, ids ...string) string {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[catalog]\nname = %q\nkind = \"image\"\ndefault_class = \"1024x1024/standard\"\n", name)
	for _, id := range ids {
		fmt.Fprintf(&b, "\n[[jobs]]\nid = %q\n[jobs.parameters]\nprompt = \"a %s\"\n", id, id)
	}
	path := filepath.Join(e.catalogDir, name+".toml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

// fakeImages counts calls and fails every call when fail is set.
type fakeImages struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeImages) Produce(_ context.Context, params producer.Parameters) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, producer.Wrap(producer.ErrResponse, "image", "generate", "status 500", errors.New("upstream unavailable"))
	}
	prompt, _ := params.String("prompt")
	return []byte("png:" + prompt), nil
}

func (f *fakeImages) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func useFakeProducers(t *testing.T, images producer.Producer) {
	t.Helper()
	previous := newProducerRegistry
	newProducerRegistry = func(*config.Config, *slog.Logger) (*producer.Registry, error) {
		registry := producer.NewRegistry()
		if err := registry.Register(producer.Binding{
			Kind:         producer.KindImage,
			Producer:     images,
			Extension:    imageExtension,
			DefaultClass: imageDefaultClass,
			Classify:     image.Classify,
		}); err != nil {
			return nil, err
		}
		return registry, nil
	}
	t.Cleanup(func() { newProducerRegistry = previous })
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
