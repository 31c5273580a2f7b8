package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAuditCmd(a *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report annual leave whose day count no longer matches the calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			found := a.svc.Audit(cmd.Context(), year)
			if len(found) == 0 {
				fmt.Fprintf(a.out, "no inconsistencies in %d\n", year)
				return nil
			}
			fmt.Fprintf(a.out, "%-6s %-6s %-24s %-9s %s\n", "LEAVE", "AGENT", "PERIOD", "RECORDED", "CALENDAR")
			for _, in := range found {
				fmt.Fprintf(a.out, "%-6d %-6d %-24s %-9s %d\n",
					in.Leave.ID, in.Leave.AgentID, in.Leave.Period(), in.Leave.DaysTaken, in.Recalculated)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "year of the leave start dates")
	return cmd
}
