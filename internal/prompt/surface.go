package prompt

import (
	"bytes"
	"html/template"
	"log"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var dialogTemplate = template.Must(template.New("dialog").Parse(`<div class="stalecheck-overlay{{with .View.ClassName}} {{.}}{{end}}" data-phase="{{.Phase}}">
<div class="stalecheck-dialog" role="dialog" aria-modal="true" aria-label="{{.View.Label}}" style="{{with .View.Width}}width: {{.}};{{end}}{{range $k, $v := .View.Style}} {{$k}}: {{$v}};{{end}}">
<h2 class="stalecheck-title">{{.View.Heading}}</h2>
{{- with .View.Note}}
<div class="stalecheck-note stalecheck-note--warning" role="alert">{{.}}</div>
{{- end}}
{{- with .Body}}
<div class="stalecheck-description">{{.}}</div>
{{- end}}
<div class="stalecheck-actions">
{{- if .View.ShowLater}}
<button type="button" class="stalecheck-later" data-action="later">{{.View.Labels.Later}}</button>
{{- end}}
<button type="button" class="stalecheck-refresh" data-action="refresh"{{if .View.Refreshing}} disabled{{end}}>{{if .View.Refreshing}}{{.View.Labels.Refreshing}}{{else}}{{.View.Labels.Refresh}}{{end}}</button>
{{- if not .View.Mandatory}}
<button type="button" class="stalecheck-close" data-action="close" aria-label="{{.View.Labels.Close}}">&times;</button>
{{- end}}
</div>
</div>
</div>`))

type dialogData struct {
	View  View
	Phase Phase
	Body  template.HTML
}

// HTMLSurface renders the dialog to an HTML fragment that the browser shim
// injects into the page. Descriptions pass through a bluemonday UGC policy.
type HTMLSurface struct {
	policy *bluemonday.Policy

	mu      sync.Mutex
	mounted bool
	phase   Phase
	view    View
	html    string
}

func NewHTMLSurface() *HTMLSurface {
	return &HTMLSurface{policy: bluemonday.UGCPolicy(), phase: PhaseHidden}
}

func (s *HTMLSurface) Mount(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = true
	s.phase = PhaseHidden
	s.renderLocked(v)
}

func (s *HTMLSurface) Render(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.renderLocked(v)
}

func (s *HTMLSurface) Show()      { s.setPhase(PhaseShown) }
func (s *HTMLSurface) BeginHide() { s.setPhase(PhaseHiding) }
func (s *HTMLSurface) Hide()      { s.setPhase(PhaseHidden) }

func (s *HTMLSurface) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
	s.phase = PhaseHidden
	s.html = ""
}

// Markup returns the rendered fragment and its phase. The fragment is empty
// once unmounted.
func (s *HTMLSurface) Markup() (string, Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html, s.phase
}

func (s *HTMLSurface) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.phase = p
	s.renderLocked(s.view)
}

func (s *HTMLSurface) renderLocked(v View) {
	s.view = v
	var buf bytes.Buffer
	err := dialogTemplate.Execute(&buf, dialogData{
		View:  v,
		Phase: s.phase,
		Body:  template.HTML(s.policy.Sanitize(v.Body)),
	})
	if err != nil {
		log.Printf("[prompt] render dialog failed: %v", err)
		return
	}
	s.html = buf.String()
}
