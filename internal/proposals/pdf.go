package proposals

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/tripdesk/tripdesk/web"
)

// PDFClient exposes the subset of the report client used by the renderer.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Renderer turns a proposal into a PDF via html/template + PDF conversion.
type Renderer struct {
	tpl    *template.Template
	client PDFClient
}

// NewRenderer parses the proposal template and wires the PDF client.
func NewRenderer(client PDFClient) (*Renderer, error) {
	if client == nil {
		return nil, fmt.Errorf("proposal renderer: pdf client required")
	}
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"formatAmount": func(v float64) string {
			return fmt.Sprintf("%0.2f", v)
		},
		"join": strings.Join,
	}
	tpl, err := template.New("proposal.html").Funcs(funcMap).ParseFS(web.Templates, "templates/proposals/proposal.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, client: client}, nil
}

// HTML executes the template only.
func (r *Renderer) HTML(p Proposal) (string, error) {
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render executes the template and converts the HTML to PDF bytes.
func (r *Renderer) Render(ctx context.Context, p Proposal) ([]byte, error) {
	if r == nil || r.tpl == nil || r.client == nil {
		return nil, fmt.Errorf("proposal renderer not initialised")
	}
	html, err := r.HTML(p)
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, html)
}
