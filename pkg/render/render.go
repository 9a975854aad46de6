// Package render writes evaluation results, history listings, and worksheet
// reports to a terminal in table, json, csv, or plain form.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tapelabs/deskcalc/pkg/history"
	"github.com/tapelabs/deskcalc/pkg/worksheet"
)

// Output formats accepted by the --format flag and the .format command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatPlain = "plain"
)

// KnownFormat reports whether s names a supported output format.
func KnownFormat(s string) bool {
	switch s {
	case FormatTable, FormatJSON, FormatCSV, FormatPlain:
		return true
	}
	return false
}

// Result writes a single evaluation entry. Unknown formats fall back to the
// table form.
func Result(w io.Writer, e *history.Entry, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, e)
	case FormatCSV:
		_, _ = fmt.Fprintln(w, "expression,state,result,error")
		_, _ = fmt.Fprintln(w, entryCSV(e))
		return nil
	case FormatPlain:
		if e.State == history.EntrySucceeded {
			_, _ = fmt.Fprintln(w, e.Result)
		} else {
			_, _ = fmt.Fprintf(w, "error: %s\n", e.Error.Message)
		}
		return nil
	default:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Expression", "Result"})
		t.AppendRow(table.Row{e.Expression, entryOutcome(e)})
		t.Render()
		return nil
	}
}

// History writes a history listing, newest entry first.
func History(w io.Writer, entries []*history.Entry, format string) error {
	switch format {
	case FormatJSON:
		if entries == nil {
			entries = []*history.Entry{}
		}
		return renderJSON(w, entries)
	case FormatCSV:
		_, _ = fmt.Fprintln(w, "id,expression,state,result,error")
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s,%s\n", escapeCSV(e.ID), entryCSV(e))
		}
		return nil
	case FormatPlain:
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s = %s\n", e.Expression, entryOutcome(e))
		}
		return nil
	default:
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(w, "(no history)")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Expression", "Result", "When"})
		for _, e := range entries {
			t.AppendRow(table.Row{e.ID, e.Expression, entryOutcome(e), e.CreateTime.Format("15:04:05")})
		}
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d entries)\n", len(entries))
		return nil
	}
}

// Report writes a worksheet run report.
func Report(w io.Writer, rep *worksheet.Report, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, rep)
	case FormatCSV:
		_, _ = fmt.Fprintln(w, "expression,result,want,check")
		for _, r := range rep.Results {
			_, _ = fmt.Fprintf(w, "%s,%s,%s,%s\n",
				escapeCSV(r.Expression), escapeCSV(resultCell(r)), escapeCSV(r.Want), checkCell(r))
		}
		return nil
	case FormatPlain:
		for _, r := range rep.Results {
			_, _ = fmt.Fprintf(w, "%s = %s\n", r.Expression, resultCell(r))
		}
		_, _ = fmt.Fprintln(w, reportSummary(rep))
		return nil
	default:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Expression", "Result", "Want", "Check"})
		for _, r := range rep.Results {
			t.AppendRow(table.Row{r.Expression, resultCell(r), r.Want, checkCell(r)})
		}
		t.Render()
		_, _ = fmt.Fprintln(w, reportSummary(rep))
		return nil
	}
}

func renderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// entryOutcome renders an entry's result or failure for a single cell.
func entryOutcome(e *history.Entry) string {
	if e.State == history.EntrySucceeded {
		return e.Result
	}
	if e.Error != nil {
		return "error: " + e.Error.Message
	}
	return "error"
}

// entryCSV renders the shared expression,state,result,error tail of a CSV row.
func entryCSV(e *history.Entry) string {
	result, errMsg := "", ""
	if e.State == history.EntrySucceeded {
		result = e.Result
	} else if e.Error != nil {
		errMsg = e.Error.Message
	}
	return strings.Join([]string{
		escapeCSV(e.Expression),
		string(e.State),
		escapeCSV(result),
		escapeCSV(errMsg),
	}, ",")
}

func resultCell(r worksheet.EntryResult) string {
	if r.OK {
		return r.Result
	}
	return "error: " + r.Error
}

func checkCell(r worksheet.EntryResult) string {
	if r.Check == worksheet.CheckNone {
		return "-"
	}
	return string(r.Check)
}

func reportSummary(rep *worksheet.Report) string {
	return fmt.Sprintf("(%d expressions: %d passed, %d failed, %d unchecked)",
		len(rep.Results), rep.Passed, rep.Failed, rep.Unchecked)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
