// Package template describes the layout of the supported payroll journal:
// column band boundaries, clustering tolerances, and the label and pattern
// vocabulary the row grammar is matched against. A Template is built once per
// process and shared read-only by every pipeline stage.
package template

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/payroll-journal-converter/pkg/money"
)

// Column names every template must define.
const (
	ColDate        = "date"
	ColAccount     = "account"
	ColDescription = "description"
	ColDebit       = "debit"
	ColCredit      = "credit"
)

var requiredColumns = []string{ColDate, ColAccount, ColDescription, ColDebit, ColCredit}

//go:embed default.yaml
var defaultYAML []byte

//go:embed schema.json
var schemaJSON string

// Column is a horizontal band of the page assigned to one logical column.
type Column struct {
	Name string  `yaml:"name"`
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
}

// Labels holds the fixed strings printed by the journal.
type Labels struct {
	HeaderMinMatches int                 `yaml:"header_min_matches"`
	Header           map[string][]string `yaml:"header"`
	Subtotal         []string            `yaml:"subtotal"`
	PageTotal        []string            `yaml:"page_total"`
	GrandTotal       []string            `yaml:"grand_total"`
	Negative         []string            `yaml:"negative"`
}

// Code maps a pay code pattern to a default description.
type Code struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// Template is the immutable layout configuration. Exported fields mirror the
// YAML document; do not modify them after Parse.
type Template struct {
	Name            string   `yaml:"name"`
	LineTolerance   float64  `yaml:"line_tolerance"`
	GlyphGap        float64  `yaml:"glyph_gap"`
	DecimalComma    bool     `yaml:"decimal_comma"`
	Currency        string   `yaml:"currency"`
	DateLayouts     []string `yaml:"date_layouts"`
	AccountPattern  string   `yaml:"account_pattern"`
	PeriodPattern   string   `yaml:"period_pattern"`
	CurrencyPattern string   `yaml:"currency_pattern"`
	StaffPattern    string   `yaml:"staff_pattern"`
	StaffRequired   bool     `yaml:"staff_required"`
	Columns         []Column `yaml:"columns"`
	LabelDistance   int      `yaml:"label_distance"`
	Labels          Labels   `yaml:"labels"`
	NoiseKeywords   []string `yaml:"noise_keywords"`
	Codes           []Code   `yaml:"codes"`

	account  *regexp.Regexp
	period   *regexp.Regexp
	currency *regexp.Regexp
	staff    *regexp.Regexp
	codes    []*regexp.Regexp
	noise    *ahocorasick.Matcher
}

// Default returns the built-in payroll journal template.
func Default() *Template {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("template: embedded default is invalid: %v", err))
	}
	return t
}

// Load reads and compiles a template from a YAML file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML template against the schema and compiles it.
func Parse(data []byte) (*Template, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return &t, nil
}

// YAML renders the template back to YAML.
func (t *Template) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func validateSchema(data []byte) error {
	schema, err := jsonschema.CompileString("template.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("failed to compile template schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode template: %w", err)
	}
	// Round-trip through JSON so the validator sees json.Number values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to decode template: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("failed to decode template: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

func (t *Template) compile() error {
	var errs []error

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.MaxX <= c.MinX {
			errs = append(errs, fmt.Errorf("column %q: max_x must exceed min_x", c.Name))
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("column %q defined twice", c.Name))
		}
		seen[c.Name] = true
	}
	for _, name := range requiredColumns {
		if !seen[name] {
			errs = append(errs, fmt.Errorf("missing required column %q", name))
		}
	}
	sort.SliceStable(t.Columns, func(i, j int) bool { return t.Columns[i].MinX < t.Columns[j].MinX })
	for i := 1; i < len(t.Columns); i++ {
		if t.Columns[i].MinX < t.Columns[i-1].MaxX {
			errs = append(errs, fmt.Errorf("columns %q and %q overlap", t.Columns[i-1].Name, t.Columns[i].Name))
		}
	}

	code, err := money.NormalizeCurrency(t.Currency)
	if err != nil {
		errs = append(errs, err)
	}
	t.Currency = code

	compile := func(field, pattern string) *regexp.Regexp {
		if pattern == "" {
			return nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
		return re
	}
	t.account = compile("account_pattern", t.AccountPattern)
	t.period = compile("period_pattern", t.PeriodPattern)
	t.currency = compile("currency_pattern", t.CurrencyPattern)
	t.staff = compile("staff_pattern", t.StaffPattern)
	t.codes = make([]*regexp.Regexp, 0, len(t.Codes))
	for i, c := range t.Codes {
		t.codes = append(t.codes, compile(fmt.Sprintf("codes[%d]", i), c.Pattern))
	}

	if t.period != nil && (t.period.SubexpIndex("day") < 0 || t.period.SubexpIndex("month") < 0 || t.period.SubexpIndex("year") < 0) {
		errs = append(errs, errors.New("period_pattern must capture day, month and year"))
	}
	if t.currency != nil && t.currency.SubexpIndex("code") < 0 {
		errs = append(errs, errors.New("currency_pattern must capture code"))
	}
	if t.staff != nil && t.staff.SubexpIndex("id") < 0 {
		errs = append(errs, errors.New("staff_pattern must capture id"))
	}
	if t.StaffRequired && t.staff == nil {
		errs = append(errs, errors.New("staff_required needs a staff_pattern"))
	}

	if t.Labels.HeaderMinMatches == 0 {
		t.Labels.HeaderMinMatches = 3
	}

	keywords := make([]string, 0, len(t.NoiseKeywords))
	for _, k := range t.NoiseKeywords {
		keywords = append(keywords, strings.ToLower(k))
	}
	t.noise = ahocorasick.NewStringMatcher(keywords)

	return errors.Join(errs...)
}

// Column returns the index of the band containing x, or the nearest band
// when x falls between or outside the bands.
func (t *Template) Column(x float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range t.Columns {
		if x >= c.MinX && x < c.MaxX {
			return i
		}
		dist := math.Min(math.Abs(x-c.MinX), math.Abs(x-c.MaxX))
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// IsNoise reports whether text contains one of the noise keywords.
func (t *Template) IsNoise(text string) bool {
	if t.noise == nil || text == "" {
		return false
	}
	return len(t.noise.MatchThreadSafe([]byte(strings.ToLower(text)))) > 0
}

// MatchLabel reports whether text is one of labels, ignoring case and
// accents and allowing LabelDistance extra characters.
func (t *Template) MatchLabel(labels []string, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, label := range labels {
		rank := fuzzy.RankMatchNormalizedFold(label, text)
		if rank >= 0 && rank <= t.LabelDistance {
			return true
		}
	}
	return false
}

// IsHeader reports whether enough cells carry the column header labels.
func (t *Template) IsHeader(cells map[string]string) bool {
	matches := 0
	for column, text := range cells {
		if t.MatchLabel(t.Labels.Header[column], text) {
			matches++
		}
	}
	return matches >= t.Labels.HeaderMinMatches
}

// IsAccount reports whether s has the shape of an account or pay code.
func (t *Template) IsAccount(s string) bool {
	return t.account != nil && t.account.MatchString(strings.TrimSpace(s))
}

// ParseDate parses s with the first matching date layout.
func (t *Template) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range t.DateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Period extracts the journal period date from a period header line.
func (t *Template) Period(text string) (time.Time, bool, error) {
	if t.period == nil {
		return time.Time{}, false, nil
	}
	m := t.period.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false, nil
	}
	day, _ := strconv.Atoi(m[t.period.SubexpIndex("day")])
	month, _ := strconv.Atoi(m[t.period.SubexpIndex("month")])
	year, _ := strconv.Atoi(m[t.period.SubexpIndex("year")])
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, true, fmt.Errorf("invalid period date %02d/%02d/%04d", day, month, year)
	}
	return d, true, nil
}

// CurrencyHeader extracts the currency code from a currency header line.
func (t *Template) CurrencyHeader(text string) (string, bool) {
	if t.currency == nil {
		return "", false
	}
	m := t.currency.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[t.currency.SubexpIndex("code")]), true
}

// Staff extracts the employee identifier and name from a staff header line.
func (t *Template) Staff(text string) (id, name string, ok bool) {
	if t.staff == nil {
		return "", "", false
	}
	m := t.staff.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}
	if i := t.staff.SubexpIndex("name"); i >= 0 {
		name = strings.TrimSpace(m[i])
	}
	return m[t.staff.SubexpIndex("id")], name, true
}

// CodeLabel returns the catalogue description for a pay code.
func (t *Template) CodeLabel(account string) (string, bool) {
	for i, re := range t.codes {
		if re != nil && re.MatchString(account) {
			return t.Codes[i].Label, true
		}
	}
	return "", false
}
