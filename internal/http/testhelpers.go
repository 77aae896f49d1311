package httpx

import (
	"os"
	"strings"
	"testing"
)

// RequireTemplateRenderer builds a renderer from the on-disk templates,
// skipping the test when they cannot be loaded (e.g. running outside the
// repo checkout).
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	if err != nil {
		t.Skipf("templates unavailable: %v", err)
		return nil
	}
	return tr
}

// SkipIfNoTemplates skips the test when the template directory is gone.
func SkipIfNoTemplates(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("templates unavailable, skipping")
	}
}

// ContainsAll reports whether s contains every entry of subs.
func ContainsAll(s string, subs []string) bool {
	for _, want := range subs {
		if !strings.Contains(s, want) {
			return false
		}
	}
	return true
}

// CreateUIHandlersForTest builds UIHandlers backed by the on-disk
// templates, skipping the test when they are unavailable.
func CreateUIHandlersForTest(t *testing.T) *UIHandlers {
	t.Helper()
	tr := RequireTemplateRenderer(t)
	if tr == nil {
		return nil
	}
	return &UIHandlers{T: tr}
}
