package render

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/papermint/papermint/internal/brand"
	"github.com/papermint/papermint/internal/catalog"
	"github.com/papermint/papermint/internal/clock"
	"github.com/papermint/papermint/internal/generate"
	"github.com/papermint/papermint/internal/prompt"
)

const footerDisclaimer = "Novelty document generated for entertainment purposes only. Not valid for any official use."

var (
	colorWhite = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorBlack = &props.Color{}
)

// RenderError marks a failure inside PDF layout or byte generation so the
// caller can record it as a generation failure instead of crashing.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// metadataFields is the fixed set of input keys surfaced in the metadata
// block, in display order.
var metadataFields = []struct {
	key   string
	label string
}{
	{"fullName", "Subject"},
	{"employeeName", "Subject"},
	{"graduateName", "Subject"},
	{"patientName", "Subject"},
	{"dateOfBirth", "Date of birth"},
	{"city", "City"},
	{"companyName", "Organization"},
	{"employerName", "Organization"},
	{"institutionName", "Organization"},
	{"jobTitle", "Position"},
	{"degreeTitle", "Degree"},
}

// Renderer lays generated content out as a paginated PDF. Stateless per
// call aside from the injected clock and randomness for case references.
type Renderer struct {
	catalog *catalog.Holder
	clock   clock.Clock
	log     *zap.Logger
	randN   func(n int) int
}

func NewRenderer(holder *catalog.Holder, clk clock.Clock, log *zap.Logger) *Renderer {
	return &Renderer{
		catalog: holder,
		clock:   clk,
		log:     log,
		randN:   rand.Intn,
	}
}

// Render produces the final document bytes for one generation run.
func (r *Renderer) Render(serviceSlug string, content generate.Content, b brand.Brand, inputs prompt.SanitizedInputs) ([]byte, error) {
	def, err := r.catalog.Current().Get(serviceSlug)
	if err != nil {
		return nil, &RenderError{Stage: "catalog", Err: err}
	}

	body := bodyText(content)

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(r.footerRow()); err != nil {
		return nil, &RenderError{Stage: "footer", Err: err}
	}

	r.addLetterhead(m, def, b)
	r.addMetadata(m, b, inputs)
	r.addDivider(m)
	r.addBody(m, b, body)

	doc, err := m.Generate()
	if err != nil {
		return nil, &RenderError{Stage: "generate", Err: err}
	}
	return doc.GetBytes(), nil
}

// bodyText flattens structured content into field-label lines so a single
// layout path serves both output shapes.
func bodyText(content generate.Content) string {
	if content.Mode == catalog.OutputText {
		return cleanText(content.Text)
	}

	var sb strings.Builder
	for _, key := range sortedKeys(content.Fields) {
		fmt.Fprintf(&sb, "%s: %v\n", labelize(key), content.Fields[key])
	}
	return cleanText(sb.String())
}

func (r *Renderer) addLetterhead(m core.Maroto, def catalog.ServiceDefinition, b brand.Brand) {
	if len(b.PNG) > 0 {
		m.AddRow(34,
			image.NewFromBytesCol(2, b.PNG, extension.Png, props.Rect{
				Center:  false,
				Percent: 90,
			}),
			col.New(7).Add(
				text.New(b.DisplayName, props.Text{
					Size:  13,
					Style: fontstyle.Bold,
					Top:   10,
				}),
			),
			col.New(3),
		)
	} else {
		// Degrade to a text-only letterhead rather than fail the render.
		r.log.Warn("brand mark missing, rendering text-only letterhead",
			zap.String("service", def.Slug),
		)
		m.AddRow(16,
			text.NewCol(12, b.DisplayName, props.Text{
				Size:  13,
				Style: fontstyle.Bold,
			}),
		)
	}

	m.AddRow(12,
		text.NewCol(12, def.DisplayName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(7,
		text.NewCol(12, "Reference: "+r.caseReference(def.CaseRefPrefix), props.Text{
			Size: 9,
		}),
	)
}

// caseReference formats {two-digit year}-{random four digits}-{prefix}.
func (r *Renderer) caseReference(prefix string) string {
	year := r.clock.Now().Year() % 100
	return fmt.Sprintf("%02d-%04d-%s", year, r.randN(10000), prefix)
}

func (r *Renderer) addMetadata(m core.Maroto, b brand.Brand, inputs prompt.SanitizedInputs) {
	type entry struct{ label, value string }
	var entries []entry
	seen := map[string]bool{}
	for _, f := range metadataFields {
		value, ok := inputs.Values[f.key]
		if !ok || strings.TrimSpace(value) == "" || seen[f.label] {
			continue
		}
		seen[f.label] = true
		entries = append(entries, entry{label: f.label, value: value})
	}
	entries = append(entries, entry{label: "Issued by", value: b.DisplayName})
	entries = append(entries, entry{label: "Date of issue", value: r.clock.Now().Format("January 2, 2006")})

	for _, e := range entries {
		m.AddRow(6,
			text.NewCol(3, e.label, props.Text{Size: 9, Style: fontstyle.Bold}),
			text.NewCol(9, e.value, props.Text{Size: 9}),
		)
	}
}

func (r *Renderer) addDivider(m core.Maroto) {
	m.AddRow(6, line.NewCol(12, props.Line{
		Thickness:     0.4,
		SizePercent:   100,
		OffsetPercent: 50,
	}))
}

func (r *Renderer) addBody(m core.Maroto, b brand.Brand, body string) {
	primary := hexToColor(b.Colors.Primary)
	shade := hexToColor(b.Colors.Accent)

	for _, blk := range groupBlocks(body) {
		if blk.table {
			r.addTable(m, blk.lines, primary, shade)
			continue
		}
		for _, ln := range blk.lines {
			r.addLine(m, ln, primary)
		}
	}
}

func (r *Renderer) addLine(m core.Maroto, ln string, primary *props.Color) {
	trimmed := strings.TrimSpace(ln)
	if trimmed == "" {
		m.AddRow(4, col.New(12))
		return
	}

	switch classify(trimmed) {
	case classDocumentHeader:
		m.AddRow(10, text.NewCol(12, trimmed, props.Text{
			Size:  13,
			Style: fontstyle.Bold,
			Align: align.Center,
			Color: primary,
		}))
	case classSectionHeader:
		m.AddRow(8, text.NewCol(12, strings.TrimSuffix(trimmed, ":"), props.Text{
			Size:  11,
			Style: fontstyle.Bold,
			Color: primary,
			Top:   2,
		}))
	case classListItem:
		m.AddRow(6, text.NewCol(12, trimmed, props.Text{
			Size: 10,
			Left: 6,
		}))
	case classFieldLabel:
		label, value, _ := strings.Cut(trimmed, ":")
		m.AddRow(6,
			text.NewCol(4, strings.TrimSpace(label), props.Text{
				Size:  10,
				Style: fontstyle.Bold,
			}),
			text.NewCol(8, strings.TrimSpace(value), props.Text{Size: 10}),
		)
	default:
		m.AddRow(6, text.NewCol(12, trimmed, props.Text{Size: 10}))
	}
}

// addTable renders contiguous delimited rows as a shaded-header table with
// zebra-striped body rows.
func (r *Renderer) addTable(m core.Maroto, rows []string, primary, shade *props.Color) {
	if len(rows) == 0 {
		return
	}

	header := tableSegments(rows[0])
	width := colWidth(len(header))

	headerCols := make([]core.Col, 0, len(header))
	for _, seg := range header {
		headerCols = append(headerCols, text.NewCol(width, seg, props.Text{
			Size:  9,
			Style: fontstyle.Bold,
			Color: colorWhite,
		}))
	}
	m.AddRows(row.New(7).Add(headerCols...).WithStyle(&props.Cell{
		BackgroundColor: primary,
	}))

	for i, raw := range rows[1:] {
		segments := tableSegments(raw)
		cols := make([]core.Col, 0, len(header))
		for j := 0; j < len(header); j++ {
			value := ""
			if j < len(segments) {
				value = segments[j]
			}
			cols = append(cols, text.NewCol(width, value, props.Text{Size: 9}))
		}
		tr := row.New(6).Add(cols...)
		if i%2 == 1 {
			tr.WithStyle(&props.Cell{BackgroundColor: shade})
		}
		m.AddRows(tr)
	}
}

func (r *Renderer) footerRow() core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New(footerDisclaimer, props.Text{
				Size:  7,
				Align: align.Center,
			}),
			text.New("Generated "+r.clock.Now().UTC().Format("2006-01-02 15:04 MST"), props.Text{
				Size:  7,
				Align: align.Center,
				Top:   3,
			}),
		),
	)
}

func colWidth(n int) int {
	if n <= 0 {
		return 12
	}
	w := 12 / n
	if w < 1 {
		w = 1
	}
	return w
}

func hexToColor(hex string) *props.Color {
	if len(hex) != 7 || hex[0] != '#' {
		return colorBlack
	}
	v := func(hi, lo byte) int {
		return int(hexNibble(hi))<<4 | int(hexNibble(lo))
	}
	return &props.Color{
		Red:   v(hex[1], hex[2]),
		Green: v(hex[3], hex[4]),
		Blue:  v(hex[5], hex[6]),
	}
}

func hexNibble(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func labelize(key string) string {
	var sb strings.Builder
	for i, r := range key {
		if i == 0 {
			sb.WriteRune(toUpperRune(r))
			continue
		}
		if r >= 'A' && r <= 'Z' {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func toUpperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var Module = fx.Module("render",
	fx.Provide(NewRenderer),
)
