package prompt

import (
	"strings"
	"testing"

	"github.com/Resinat/stalecheck/internal/model"
)

func TestHTMLSurface_Render(t *testing.T) {
	surface := NewHTMLSurface()
	c := New(Config{
		Title:       "Update available",
		Description: `A new build is out. <a href="https://example.com/changelog">Changelog</a><script>alert(1)</script>`,
		Width:       "420px",
	}, Events{}, surface, nil)

	html, phase := surface.Markup()
	if phase != PhaseHidden || !strings.Contains(html, `data-phase="hidden"`) {
		t.Fatalf("mounted surface should be hidden, got %s", phase)
	}

	c.Show(model.ReasonNetworkError, false)
	html, phase = surface.Markup()
	if phase != PhaseShown {
		t.Fatalf("phase: got %s", phase)
	}
	for _, want := range []string{
		`aria-label="Update available"`,
		"network issue",
		"stalecheck-note--warning",
		`href="https://example.com/changelog"`,
		`data-action="later"`,
		`data-action="close"`,
		"width: 420px",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("markup missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("description must be sanitized:\n%s", html)
	}

	c.Show(model.ReasonResourceError, false)
	html, _ = surface.Markup()
	if strings.Contains(html, `data-action="later"`) || strings.Contains(html, `data-action="close"`) {
		t.Fatalf("mandatory prompt must omit later and close:\n%s", html)
	}

	c.HandleRefresh()
	html, _ = surface.Markup()
	if !strings.Contains(html, "disabled") || !strings.Contains(html, "Refreshing...") {
		t.Fatalf("refreshing button not rendered:\n%s", html)
	}

	c.Destroy()
	if html, _ := surface.Markup(); html != "" {
		t.Fatal("unmounted surface must render nothing")
	}
}
