// Package page turns document snapshots into bounded structures and
// derives page-level analysis from them. Extraction is best-effort: a
// page that cannot be read yields an empty structure, never an error.
package page

import (
	"strings"

	"github.com/themobileprof/voicepilot/internal/dom"
	"github.com/themobileprof/voicepilot/pkg/models"
)

const (
	// MaxTextLength caps the extracted text body.
	MaxTextLength = 2000
	// MaxLinkLength rejects accidental mega-link text blocks.
	MaxLinkLength = 100

	fallbackTitle  = "Untitled page"
	unlabeledField = "Unlabeled field"
	unlabeledBtn   = "Button"
)

// Extractor walks a document and produces a PageStructure snapshot.
type Extractor struct{}

// NewExtractor creates a new page extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract produces a bounded structured snapshot of the document.
// Never fails: a broken or nil document yields an empty-but-typed
// structure with an explanatory title.
func (e *Extractor) Extract(doc *dom.Document) (structure *models.PageStructure) {
	defer func() {
		if r := recover(); r != nil {
			structure = emptyStructure("The page could not be read.")
		}
	}()

	if doc == nil {
		return emptyStructure("No page is loaded.")
	}

	structure = emptyStructure("")

	structure.Title = doc.Title()
	if structure.Title == "" {
		structure.Title = fallbackTitle
	}

	for _, h := range doc.ElementsByTag("h1", "h2", "h3", "h4", "h5", "h6") {
		if text := h.Text(); text != "" {
			structure.Headings = append(structure.Headings, text)
		}
	}

	structure.Buttons = append(structure.Buttons, e.extractButtons(doc)...)

	for _, a := range doc.ElementsByTag("a") {
		if !a.HasAttr("href") {
			continue
		}
		text := a.Text()
		if text == "" || len(text) > MaxLinkLength {
			continue
		}
		structure.Links = append(structure.Links, text)
	}

	for _, form := range doc.ElementsByTag("form") {
		info := models.FormInfo{
			Action: form.Attr("action"),
			Method: form.Attr("method"),
			Fields: []string{},
		}
		for _, field := range form.Descendants("input", "textarea", "select") {
			if field.Hidden() {
				continue
			}
			info.Fields = append(info.Fields, fieldLabel(field))
		}
		structure.Forms = append(structure.Forms, info)
	}

	for _, img := range doc.ElementsByTag("img") {
		src, alt := img.Attr("src"), img.Attr("alt")
		if src == "" && alt == "" {
			continue
		}
		structure.Images = append(structure.Images, models.ImageInfo{Src: src, Alt: alt})
	}

	structure.Text = truncate(e.mainText(doc), MaxTextLength)

	return structure
}

// extractButtons reduces clickable elements to their spoken labels:
// visible text, then value, then aria-label, then a generic placeholder.
func (e *Extractor) extractButtons(doc *dom.Document) []string {
	var out []string
	for _, b := range doc.ElementsByTag("button") {
		out = append(out, buttonLabel(b))
	}
	for _, in := range doc.ElementsByTag("input") {
		t := in.Attr("type")
		if t != "submit" && t != "button" {
			continue
		}
		out = append(out, buttonLabel(in))
	}
	return out
}

func buttonLabel(el *dom.Element) string {
	if text := el.Text(); text != "" {
		return text
	}
	if v := strings.TrimSpace(el.Attr("value")); v != "" {
		return v
	}
	if l := strings.TrimSpace(el.Attr("aria-label")); l != "" {
		return l
	}
	return unlabeledBtn
}

// fieldLabel resolves a form field to a label via the precedence chain
// placeholder, aria-label, name, id.
func fieldLabel(el *dom.Element) string {
	for _, attr := range []string{"placeholder", "aria-label", "name", "id"} {
		if v := strings.TrimSpace(el.Attr(attr)); v != "" {
			return v
		}
	}
	return unlabeledField
}

// mainText reads the main content region: the first of <main>,
// [role=main], .main-content, else the whole body.
func (e *Extractor) mainText(doc *dom.Document) string {
	for _, sel := range []string{"main", "[role='main']", ".main-content"} {
		if el := doc.Query(sel); el != nil {
			return el.Text()
		}
	}
	if body := doc.Body(); body != nil {
		return body.Text()
	}
	return ""
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func emptyStructure(text string) *models.PageStructure {
	return &models.PageStructure{
		Title:    fallbackTitle,
		Headings: []string{},
		Buttons:  []string{},
		Links:    []string{},
		Forms:    []models.FormInfo{},
		Images:   []models.ImageInfo{},
		Text:     text,
	}
}
