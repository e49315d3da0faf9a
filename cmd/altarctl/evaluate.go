package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/exilekit/altar-agent/altar"
)

var evaluateJSON bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <scan.json>",
	Short: "Evaluate recorded altar scans",
	Long: `Evaluate every encounter of a scan file and print the decision.

The scan file is a JSON array of encounters:
  [{"type": "Exarch",
    "top":    {"header": "Map boss gains:", "lines": ["..."]},
    "bottom": {"header": "Player gains:",   "lines": ["..."]}}]

Repeated encounters are reported as duplicates and not evaluated again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSetup()
		if err != nil {
			return err
		}
		scans, err := readScans(args[0])
		if err != nil {
			return err
		}
		results := evaluateScans(s.engine(), scans)
		if evaluateJSON {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		return writeTable(cmd.OutOrStdout(), results)
	},
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "Output results in JSON format")
}

// staticHandle stands in for a UI element when replaying recorded scans.
type staticHandle struct{}

func (staticHandle) Valid() bool { return true }

func readScans(path string) ([]altar.RawEncounter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scans: %w", err)
	}
	var scans []altar.RawEncounter
	if err := sonic.Unmarshal(data, &scans); err != nil {
		return nil, fmt.Errorf("parse scans: %w", err)
	}
	for i := range scans {
		scans[i].Top.Handle = staticHandle{}
		scans[i].Bottom.Handle = staticHandle{}
	}
	return scans, nil
}

type result struct {
	Index        int     `json:"index"`
	Type         string  `json:"type"`
	Duplicate    bool    `json:"duplicate,omitempty"`
	Outcome      string  `json:"outcome,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	TopWeight    float64 `json:"top_weight"`
	BottomWeight float64 `json:"bottom_weight"`
	Error        string  `json:"error,omitempty"`
}

// evaluateScans registers each scan in order and evaluates the new ones.
func evaluateScans(e *altar.Engine, scans []altar.RawEncounter) []result {
	out := make([]result, 0, len(scans))
	seen := make(map[string]bool)
	for i, raw := range scans {
		r := result{Index: i, Type: raw.Type.String()}
		if !e.TryAddEncounter(raw) {
			r.Duplicate = true
			out = append(out, r)
			continue
		}
		for _, enc := range e.GetActiveEncounters() {
			if seen[enc.ID] {
				continue
			}
			seen[enc.ID] = true
			d, w, err := e.Evaluate(enc)
			if err != nil {
				r.Error = err.Error()
				break
			}
			r.Outcome = d.Outcome.String()
			if d.Reason != altar.ReasonNone {
				r.Reason = d.Reason.String()
			}
			r.TopWeight, r.BottomWeight = w.TopWeight, w.BottomWeight
		}
		out = append(out, r)
	}
	return out
}

func writeTable(w io.Writer, results []result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tTOP\tBOTTOM\tOUTCOME\tREASON")
	for _, r := range results {
		switch {
		case r.Duplicate:
			fmt.Fprintf(tw, "%d\t%s\t-\t-\tduplicate\t\n", r.Index, r.Type)
		case r.Error != "":
			fmt.Fprintf(tw, "%d\t%s\t-\t-\terror\t%s\n", r.Index, r.Type, r.Error)
		default:
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%s\t%s\n", r.Index, r.Type, r.TopWeight, r.BottomWeight, r.Outcome, r.Reason)
		}
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
