// Package worksheet loads and runs expression worksheets: named YAML batches
// of calculator expressions with optional expected results.
package worksheet

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tapelabs/deskcalc/pkg/calc"
	"github.com/tapelabs/deskcalc/pkg/history"
	"github.com/tapelabs/deskcalc/pkg/types"
)

// MaxFileSize is the maximum worksheet file size in bytes (128 KB).
const MaxFileSize = 128 * 1024

// wantEpsilon is the tolerance used when comparing a result against a
// declared expectation.
const wantEpsilon = 1e-9

// ParseError represents an error encountered while parsing a worksheet.
type ParseError struct {
	Message  string
	Location string // e.g., "entry 3"
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("worksheet error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("worksheet error: %s", e.Message)
}

// Entry is a single expression in a worksheet. An entry may declare an
// expected value (want) or an expected failure kind (want_error), but not
// both.
type Entry struct {
	Name       string   `yaml:"name,omitempty" json:"name,omitempty"`
	Expression string   `yaml:"expression" json:"expression"`
	Want       *float64 `yaml:"want,omitempty" json:"want,omitempty"`
	WantError  string   `yaml:"want_error,omitempty" json:"want_error,omitempty"`
}

// Worksheet is a named batch of expressions evaluated in order.
type Worksheet struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Expressions []Entry `yaml:"expressions" json:"expressions"`
}

// Parse decodes and validates a worksheet definition.
func Parse(source []byte) (*Worksheet, error) {
	if len(source) > MaxFileSize {
		return nil, &ParseError{Message: fmt.Sprintf("worksheet size %d exceeds maximum %d bytes", len(source), MaxFileSize)}
	}

	var ws Worksheet
	if err := yaml.Unmarshal(source, &ws); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	if ws.Name == "" {
		return nil, &ParseError{Message: "worksheet must have a name"}
	}
	if len(ws.Expressions) == 0 {
		return nil, &ParseError{Message: "worksheet must list at least one expression"}
	}

	for i, entry := range ws.Expressions {
		loc := fmt.Sprintf("entry %d", i+1)
		if entry.Name != "" {
			loc = fmt.Sprintf("entry '%s'", entry.Name)
		}
		if strings.TrimSpace(entry.Expression) == "" {
			return nil, &ParseError{Message: "expression must not be blank", Location: loc}
		}
		if entry.Want != nil && entry.WantError != "" {
			return nil, &ParseError{Message: "want and want_error are mutually exclusive", Location: loc}
		}
		if entry.WantError != "" && !types.ValidKind(types.ErrorKind(entry.WantError)) {
			return nil, &ParseError{Message: fmt.Sprintf("unknown error kind %q", entry.WantError), Location: loc}
		}
	}

	return &ws, nil
}

// Load reads and parses a worksheet file.
func Load(path string) (*Worksheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet: %w", err)
	}
	return Parse(data)
}

// LoadDir loads every .yaml/.yml worksheet in a directory. Files that fail
// to parse are skipped with a warning rather than aborting the load.
func LoadDir(dir string) ([]*Worksheet, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading worksheets directory: %w", err)
	}

	var sheets []*Worksheet
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		ws, err := Load(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: skipping worksheet %s: %v", name, err)
			continue
		}
		sheets = append(sheets, ws)
	}

	log.Printf("Loaded %d worksheet(s) from %s", len(sheets), dir)
	return sheets, nil
}

// CheckState classifies an entry result against its declared expectation.
type CheckState string

const (
	CheckPassed CheckState = "PASSED"
	CheckFailed CheckState = "FAILED"
	CheckNone   CheckState = "NONE" // no expectation declared
)

// EntryResult is the outcome of one worksheet entry.
type EntryResult struct {
	Name       string     `json:"name,omitempty"`
	Expression string     `json:"expression"`
	OK         bool       `json:"ok"`
	Result     string     `json:"result,omitempty"`
	Value      float64    `json:"value,omitempty"`
	Error      string     `json:"error,omitempty"`
	ErrorKind  string     `json:"errorKind,omitempty"`
	Want       string     `json:"want,omitempty"`
	Check      CheckState `json:"check"`
}

// Report summarizes one worksheet run.
type Report struct {
	Worksheet string        `json:"worksheet"`
	Results   []EntryResult `json:"results"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Unchecked int           `json:"unchecked"`
}

// OK reports whether no declared expectation failed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Run evaluates every entry of a worksheet in order. When hist is non-nil,
// each evaluation is also recorded there, exactly as interactive ones are.
func Run(ws *Worksheet, hist *history.History) *Report {
	rep := &Report{Worksheet: ws.Name}

	for _, entry := range ws.Expressions {
		expr := strings.TrimSpace(entry.Expression)
		v, err := calc.Evaluate(expr)
		if hist != nil {
			hist.Record(expr, v, err)
		}

		res := EntryResult{
			Name:       entry.Name,
			Expression: expr,
			Want:       wantString(entry),
		}
		if err != nil {
			ce := types.AsCalcError(err)
			res.Error = ce.Message
			res.ErrorKind = string(ce.Kind)
		} else {
			res.OK = true
			res.Value = v
			res.Result = types.FormatNumber(v)
		}

		res.Check = check(entry, v, err)
		switch res.Check {
		case CheckPassed:
			rep.Passed++
		case CheckFailed:
			rep.Failed++
		default:
			rep.Unchecked++
		}

		rep.Results = append(rep.Results, res)
	}

	return rep
}

// check compares an evaluation outcome against the entry's expectation.
func check(entry Entry, v float64, err error) CheckState {
	switch {
	case entry.Want != nil:
		if err == nil && math.Abs(v-*entry.Want) <= wantEpsilon {
			return CheckPassed
		}
		return CheckFailed
	case entry.WantError != "":
		if types.HasKind(err, types.ErrorKind(entry.WantError)) {
			return CheckPassed
		}
		return CheckFailed
	default:
		return CheckNone
	}
}

// wantString renders the declared expectation for display.
func wantString(entry Entry) string {
	switch {
	case entry.Want != nil:
		return types.FormatNumber(*entry.Want)
	case entry.WantError != "":
		return "error: " + entry.WantError
	default:
		return ""
	}
}
