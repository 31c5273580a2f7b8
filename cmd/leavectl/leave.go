package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

func newLeaveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Leave management",
	}
	cmd.AddCommand(
		newLeaveSubmitCmd(a),
		newLeaveModifyCmd(a),
		newLeaveDeleteCmd(a),
		newLeaveListCmd(a),
	)
	return cmd
}

// leaveFlags are the request fields shared by submit and modify.
type leaveFlags struct {
	agent         int64
	typ           string
	start, end    string
	days          string
	justification string
	interim       int64
	certificate   string
}

func (f *leaveFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.agent, "agent", 0, "agent id")
	cmd.Flags().StringVar(&f.typ, "type", string(leave.TypeAnnual), "leave type")
	cmd.Flags().StringVar(&f.start, "start", "", "first day (YYYY-MM-DD or DD/MM/YYYY)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day, inclusive")
	cmd.Flags().StringVar(&f.days, "days", "", "days taken (computed for annual leave when omitted)")
	cmd.Flags().StringVar(&f.justification, "justification", "", "free-text reason")
	cmd.Flags().Int64Var(&f.interim, "interim", 0, "stand-in agent id")
	cmd.Flags().StringVar(&f.certificate, "certificate", "", "certificate file to attach")
}

func (f *leaveFlags) request(id generic.LeaveID) (leave.Request, error) {
	days, err := generic.ParseDays(f.days)
	if err != nil {
		return leave.Request{}, fmt.Errorf("invalid --days %q", f.days)
	}
	req := leave.Request{
		LeaveID:         id,
		AgentID:         generic.AgentID(f.agent),
		Type:            leave.Type(f.typ),
		StartDate:       f.start,
		EndDate:         f.end,
		DaysTaken:       days,
		Justification:   f.justification,
		CertificatePath: f.certificate,
	}
	if f.interim != 0 {
		interim := generic.AgentID(f.interim)
		req.InterimID = &interim
	}
	return req, nil
}

func (a *app) save(cmd *cobra.Command, req leave.Request) error {
	id, err := a.svc.Submit(cmd.Context(), req, a.confirm)
	if errors.Is(err, generic.ErrDeclined) {
		fmt.Fprintln(a.out, "cancelled, nothing was changed")
		return nil
	}
	if err != nil {
		return err
	}
	l, err := a.svc.GetLeave(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "leave %d saved: %s %s, %s days\n", l.ID, l.Type, l.Period(), l.DaysTaken)
	return nil
}

func newLeaveSubmitCmd(a *app) *cobra.Command {
	var f leaveFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a new leave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(0)
			if err != nil {
				return err
			}
			return a.save(cmd, req)
		},
	}
	f.register(cmd)
	return cmd
}

func newLeaveModifyCmd(a *app) *cobra.Command {
	var f leaveFlags
	cmd := &cobra.Command{
		Use:   "modify <leave-id>",
		Short: "Replace a leave with new dates or type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := generic.ParseLeaveID(args[0])
			if err != nil {
				return fmt.Errorf("invalid leave id %q", args[0])
			}
			req, err := f.request(id)
			if err != nil {
				return err
			}
			return a.save(cmd, req)
		},
	}
	f.register(cmd)
	return cmd
}

func newLeaveDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <leave-id>",
		Short: "Delete a leave, restoring the annual leave it replaced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := generic.ParseLeaveID(args[0])
			if err != nil {
				return fmt.Errorf("invalid leave id %q", args[0])
			}
			if err := a.svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "leave %d deleted\n", id)
			return nil
		},
	}
}

func newLeaveListCmd(a *app) *cobra.Command {
	var agent int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the leave of an agent, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			leaves, err := a.svc.LeavesForAgent(cmd.Context(), generic.AgentID(agent))
			if err != nil {
				return err
			}
			if len(leaves) == 0 {
				fmt.Fprintln(a.out, "no leave")
				return nil
			}
			fmt.Fprintf(a.out, "%-6s %-10s %-24s %-6s %s\n", "ID", "TYPE", "PERIOD", "DAYS", "STATUS")
			for _, l := range leaves {
				fmt.Fprintf(a.out, "%-6d %-10s %-24s %-6s %s\n", l.ID, l.Type, l.Period(), l.DaysTaken, l.Status)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&agent, "agent", 0, "agent id")
	cmd.MarkFlagRequired("agent")
	return cmd
}
