package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/fsutil"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

// RenderResult prints the change summary table followed by warnings and
// per-file errors.
func RenderResult(w io.Writer, res *models.Result) error {
	s := res.Summary()
	counts := res.Counts()
	data := pterm.TableData{{"Change", "Files"}}
	for _, t := range models.ChangeTypes {
		data = append(data, []string{string(t), strconv.Itoa(counts[t])})
	}
	data = append(data, []string{"total", strconv.Itoa(s.Changes)})
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}

	header := fmt.Sprintf("%s migration %s (run %s, %s)", s.Engine, s.Outcome, s.RunID, res.Duration().Round(time.Millisecond))
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	if len(res.ResumedStages) > 0 {
		_, _ = fmt.Fprintf(w, "resumed stages: %v\n", s.Resumed)
	}
	_, _ = fmt.Fprintln(w, table)
	for _, msg := range res.Warnings {
		_, _ = fmt.Fprintln(w, "warning: "+msg)
	}
	for _, msg := range res.Errors {
		_, _ = fmt.Fprintln(w, "error: "+msg)
	}
	return nil
}

// jsonReport is the document written by --json-report.
type jsonReport struct {
	Summary models.Summary `json:"summary"`
	Result  *models.Result `json:"result"`
}

// WriteJSONReport writes the summary and full ledger of res to path.
func WriteJSONReport(path string, res *models.Result, runErr error) error {
	rep := jsonReport{Summary: res.Summary(), Result: res}
	if runErr != nil {
		rep.Summary.Failure = runErr.Error()
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return errors.InternalError("marshal JSON report").WithCause(err).Build()
	}
	if err := fsutil.WriteFile(path, append(data, '\n')); err != nil {
		return errors.WriteError(err, "write JSON report").WithPath(path).Build()
	}
	return nil
}
