package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bitelog/bitelog/client"
)

func printEntries(w io.Writer, entries []client.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSTATUS\tMEAL\tKCAL\tP/C/F")
	for _, e := range entries {
		meal, kcal, pcf := "-", "-", "-"
		switch st := e.State.(type) {
		case client.Ready:
			meal = st.Analysis.Summary
			m := st.Analysis.TotalMacros
			kcal = fmt.Sprintf("%.0f", m.Calories)
			pcf = fmt.Sprintf("%.0f/%.0f/%.0f", m.Protein, m.Carbs, m.Fat)
		case client.Failed:
			meal = st.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Time(time.Local).Format("15:04"), e.Class(), meal, kcal, pcf)
	}
	_ = tw.Flush()
}

func printSummary(w io.Writer, s client.Summary) {
	fmt.Fprintf(w, "%s  (%d ready, %d pending, %d failed)\n",
		s.Date.Format(dateLayout), s.Ready, s.Pending, s.Failed)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tEATEN\tTARGET")
	fmt.Fprintf(tw, "Calories\t%.0f\t%.0f\n", s.Totals.Calories, s.Targets.Calories)
	fmt.Fprintf(tw, "Protein\t%.0f\t%.0f\n", s.Totals.Protein, s.Targets.Protein)
	fmt.Fprintf(tw, "Carbs\t%.0f\t%.0f\n", s.Totals.Carbs, s.Targets.Carbs)
	fmt.Fprintf(tw, "Fat\t%.0f\t%.0f\n", s.Totals.Fat, s.Targets.Fat)
	_ = tw.Flush()
}
