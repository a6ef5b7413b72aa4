package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"crewtime/internal/model"
)

var (
	timelineCrew string
	timelineDate string
	timelineJSON bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Print a crew's day with travel blocks",
	RunE:  runTimeline,
}

func init() {
	timelineCmd.Flags().StringVar(&timelineCrew, "crew", "", "crew id")
	timelineCmd.Flags().StringVar(&timelineDate, "date", "", "day (YYYY-MM-DD)")
	timelineCmd.Flags().BoolVar(&timelineJSON, "json", false, "print JSON")
	_ = timelineCmd.MarkFlagRequired("crew")
	_ = timelineCmd.MarkFlagRequired("date")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := wire(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	tl, err := d.service.Timeline(cmd.Context(), timelineCrew, timelineDate)
	if err != nil {
		return err
	}
	if timelineJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tl)
	}
	printTimeline(os.Stdout, tl)
	return nil
}

func printTimeline(w io.Writer, tl model.DayTimeline) {
	fmt.Fprintf(w, "%s %s (workday %s-%s)\n", tl.CrewID, tl.Date, clock(tl.WorkdayStartMinutes), clock(tl.WorkdayEndMinutes))
	for _, it := range tl.Items {
		iv := it.Interval()
		switch it.Type {
		case model.ItemJob:
			fmt.Fprintf(w, "  %s-%s  job     %s %s\n", clock(iv.StartMinutes), clock(iv.EndMinutes), it.Assignment.ID, it.Assignment.Label)
		case model.ItemTravel:
			note := ""
			if it.Travel.Defaulted {
				note = " (default)"
			}
			fmt.Fprintf(w, "  %s-%s  travel  %s%s\n", clock(iv.StartMinutes), clock(iv.EndMinutes), it.Travel.Kind, note)
		}
	}
}

// clock renders minutes from the workday reference as hh:mm.
func clock(m int) string { return fmt.Sprintf("%02d:%02d", m/60, m%60) }
