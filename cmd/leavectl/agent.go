package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/leave-engine/leave"
)

func newAgentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent management",
	}
	cmd.AddCommand(newAgentAddCmd(a), newAgentListCmd(a))
	return cmd
}

func newAgentAddCmd(a *app) *cobra.Command {
	var (
		agent   leave.Agent
		balance string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("invalid --balance %q", balance)
			}
			agent.Balance = b

			id, err := a.svc.CreateAgent(cmd.Context(), agent)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "agent %d created\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&agent.LastName, "last", "", "last name")
	cmd.Flags().StringVar(&agent.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&agent.EmployeeNumber, "number", "", "employee number")
	cmd.Flags().StringVar(&agent.Grade, "grade", "", "grade")
	cmd.Flags().StringVar(&balance, "balance", "0", "available annual days")
	return cmd
}

func newAgentListCmd(a *app) *cobra.Command {
	var q leave.AgentQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := a.svc.ListAgents(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(agents) == 0 {
				fmt.Fprintln(a.out, "no agents")
				return nil
			}
			fmt.Fprintf(a.out, "%-6s %-10s %-30s %-12s %s\n", "ID", "NUMBER", "NAME", "GRADE", "BALANCE")
			for _, ag := range agents {
				fmt.Fprintf(a.out, "%-6d %-10s %-30s %-12s %s\n", ag.ID, ag.EmployeeNumber, ag.FullName(), ag.Grade, ag.Balance)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.Term, "query", "q", "", "filter on name or number")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "maximum rows")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "rows to skip")
	return cmd
}
