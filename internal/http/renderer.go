package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/orderdesk/orderdesk/internal/http/uiutil"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // required
	Logger     *slog.Logger // optional, for template errors
}

// NewTemplateRenderer parses every template under the root, pages/ and
// partials/ directories into one shared set.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}

	// templateFuncs closes over the pointer so renderSection can call
	// back into the set being parsed.
	var t *template.Template
	t, err := template.New("root").Funcs(templateFuncs(&t)).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("template parsing failed",
				slog.Any("error", err),
				slog.String("phase", "initialization"),
			)
		}
		return nil, err
	}

	return &TemplateRenderer{t: t, logger: cfg.Logger}, nil
}

// RenderFull renders the full page (layout + page content).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.renderTemplate(w, "layout", data)
}

// RenderPartial renders only the main content area.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.renderTemplate(w, "content", data)
}

// RenderError renders the standalone error page.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.renderTemplate(w, "error-layout", data)
}

// renderTemplate executes into a buffer so a failed execution never
// leaves a half-written response.
func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, templateName string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logRenderError("template execution failed", templateName, err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		r.logRenderError("failed to write rendered template", templateName, err)
		return err
	}
	return nil
}

func (r *TemplateRenderer) logRenderError(msg, templateName string, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Error(msg,
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}

func templateFuncs(t **template.Template) template.FuncMap {
	return template.FuncMap{
		"sectionTmpl":  ContentTemplateFor,
		"friendlyTime": friendlyTimeTemplate,
		"timeTag":      timeTagTemplate,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"contains":     strings.Contains,
		"formatMoney":  uiutil.FormatMoney,
		"truncateText": uiutil.TruncateWithEllipsis,
		"statusClass":  statusClass,
		"renderSection": func(page string, data any) (template.HTML, error) {
			if t == nil || *t == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, ContentTemplateFor(page), data); err != nil {
				return "", err
			}
			// #nosec G203 - output of our own html/template execution;
			// user values were already auto-escaped above.
			return template.HTML(buf.String()), nil
		},
		"toJSON": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}

func friendlyTimeTemplate(ts any) string {
	t0, ok := asTime(ts)
	if !ok || t0.IsZero() {
		return ""
	}
	return uiutil.FormatFriendlyDateTime(t0)
}

// timeTagTemplate emits a <time> element with a machine-readable UTC
// datetime and a local-time label.
func timeTagTemplate(ts any) template.HTML {
	t0, ok := asTime(ts)
	if !ok || t0.IsZero() {
		return ""
	}
	// #nosec G203 - built from escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\" title=\"%s\">%s</time>",
		t0.UTC().Format(time.RFC3339),
		template.HTMLEscapeString(t0.Local().Format(time.RFC1123)),
		template.HTMLEscapeString(t0.Local().Format("Jan 2, 2006 3:04:05 PM")),
	))
}

func asTime(ts any) (time.Time, bool) {
	switch v := ts.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	}
	return time.Time{}, false
}

// statusClass maps an order status to its badge CSS class.
func statusClass(status string) string {
	switch strings.ToLower(status) {
	case "pending":
		return "badge-info"
	case "paid":
		return "badge-success"
	case "shipped":
		return "badge-primary"
	case "cancelled":
		return "badge-secondary"
	case "refunded":
		return "badge-warning"
	}
	return "badge-light"
}
