package services

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/anjiri1684/training_portal/assets"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
)

const (
	certificateFont = "Helvetica-Bold"

	numberFontSize = 10
	courseFontSize = 26
	nameFontSize   = 20
	dateFontSize   = 9

	numberRightMargin = 30.0
	numberTopOffset   = 35.0
	courseTopOffset   = 200.0
	footerTopOffset   = 430.0
	nameTopOffset     = 350.0
	dateX             = 152.0
	dateY             = 72.0

	colorWhite  = "#FFFFFF"
	colorAccent = "#003399"

	issueDateLayout = "02 Jan 2006"
)

// ErrUnencodableText is wrapped by RenderError when a field holds characters
// outside the WinAnsi repertoire of the certificate font.
var ErrUnencodableText = errors.New("text not representable in certificate font")

func init() {
	// pdfcpu would otherwise create a config dir under the user's home.
	api.DisableConfigDir()
}

type CertificateFields struct {
	StudentName       string
	CourseName        string
	CertificateNumber string
	IssueDate         time.Time
}

// Placement is one piece of text burned into the template, in points from
// the bottom-left corner of the page.
type Placement struct {
	Text     string
	FontSize int
	X, Y     float64
	Color    string
}

// CenterX returns the x offset that centres text of width textWidth on a page.
func CenterX(pageWidth, textWidth float64) float64 {
	return (pageWidth - textWidth) / 2
}

func RightAlignX(pageWidth, textWidth, margin float64) float64 {
	return pageWidth - textWidth - margin
}

// TextWidth measures text as drawn: core fonts see one WinAnsi byte per rune.
func TextWidth(text string, fontSize int) float64 {
	return font.TextWidth(model.DecodeUTF8ToByte(text), certificateFont, fontSize)
}

// TemplateRenderer draws certificate fields onto a single-page PDF template.
// The template is read once; Render is safe for concurrent use.
type TemplateRenderer struct {
	template []byte
	width    float64
	height   float64
}

func NewTemplateRenderer(store assets.Storage, path string) (*TemplateRenderer, error) {
	raw, err := store.ReadTemplate(path)
	if err != nil {
		return nil, &TemplateLoadError{Path: path, Err: err}
	}

	conf := newPDFConfig()
	dims, err := api.PageDims(bytes.NewReader(raw), conf)
	if err != nil {
		return nil, &TemplateLoadError{Path: path, Err: err}
	}
	if len(dims) != 1 {
		return nil, &TemplateLoadError{Path: path, Err: fmt.Errorf("expected 1 page, got %d", len(dims))}
	}

	return &TemplateRenderer{
		template: raw,
		width:    dims[0].Width,
		height:   dims[0].Height,
	}, nil
}

func (r *TemplateRenderer) PageSize() (width, height float64) {
	return r.width, r.height
}

// Layout computes where each field goes on the page.
func (r *TemplateRenderer) Layout(f CertificateFields) []Placement {
	number := singleLine(f.CertificateNumber)
	course := singleLine(f.CourseName)
	name := singleLine(f.StudentName)

	courseX := CenterX(r.width, TextWidth(course, courseFontSize))

	return []Placement{
		{
			Text:     number,
			FontSize: numberFontSize,
			X:        RightAlignX(r.width, TextWidth(number, numberFontSize), numberRightMargin),
			Y:        r.height - numberTopOffset,
			Color:    colorWhite,
		},
		{Text: course, FontSize: courseFontSize, X: courseX, Y: r.height - courseTopOffset, Color: colorAccent},
		{Text: course, FontSize: courseFontSize, X: courseX, Y: r.height - footerTopOffset, Color: colorWhite},
		{Text: ": " + f.IssueDate.Format(issueDateLayout), FontSize: dateFontSize, X: dateX, Y: dateY, Color: colorWhite},
		{
			Text:     name,
			FontSize: nameFontSize,
			X:        CenterX(r.width, TextWidth(name, nameFontSize)),
			Y:        r.height - nameTopOffset,
			Color:    colorWhite,
		},
	}
}

func (r *TemplateRenderer) Render(f CertificateFields) ([]byte, error) {
	placements := r.Layout(f)

	stamps := make([]*model.Watermark, 0, len(placements))
	for _, p := range placements {
		if p.Text == "" {
			continue
		}
		if bad := unencodable(p.Text); bad != "" {
			return nil, &RenderError{Err: fmt.Errorf("%w: %q in %q", ErrUnencodableText, bad, p.Text)}
		}
		wm, err := api.TextWatermark(p.Text, stampDescription(p), true, false, types.POINTS)
		if err != nil {
			return nil, &RenderError{Err: fmt.Errorf("prepare %q: %w", p.Text, err)}
		}
		stamps = append(stamps, wm)
	}
	if len(stamps) == 0 {
		return nil, &RenderError{Err: errors.New("nothing to draw")}
	}

	var out bytes.Buffer
	err := api.AddWatermarksSliceMap(bytes.NewReader(r.template), &out, map[int][]*model.Watermark{1: stamps}, newPDFConfig())
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	return out.Bytes(), nil
}

// stampDescription anchors the stamp's bounding box, which pdfcpu places the
// font's descent (rounded up) below the baseline, so the offset is lowered by
// that amount to put the baseline at p.Y.
func stampDescription(p Placement) string {
	y := p.Y - math.Ceil(font.Descent(certificateFont, p.FontSize))
	return fmt.Sprintf(
		"fontname:%s, points:%d, position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0, fillcolor:%s, opacity:1",
		certificateFont, p.FontSize, p.X, y, p.Color,
	)
}

// unencodable returns the runes of s that Windows-1252 cannot represent.
func unencodable(s string) string {
	var bad []rune
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			bad = append(bad, r)
		}
	}
	return string(bad)
}

func newPDFConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// singleLine folds control characters to spaces so a field renders on one line.
func singleLine(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s))
}
