package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

func newHolidayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holiday",
		Short: "Holiday calendar",
	}
	cmd.AddCommand(
		newHolidayAddCmd(a),
		newHolidayListCmd(a),
		newHolidayDeleteCmd(a),
		newHolidayDefaultsCmd(a),
	)
	return cmd
}

func newHolidayAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <date> <name>",
		Short: "Add or rename a holiday",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := generic.ParseDate(args[0])
			if err != nil {
				return err
			}
			h := leave.Holiday{Date: date, Name: strings.Join(args[1:], " "), Kind: leave.HolidayCustom}
			if err := a.svc.AddHoliday(cmd.Context(), h); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "holiday %s saved\n", date)
			return nil
		},
	}
}

func newHolidayListCmd(a *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the holidays of a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := a.svc.ListHolidays(cmd.Context(), year)
			if err != nil {
				return err
			}
			if len(hs) == 0 {
				fmt.Fprintf(a.out, "no holidays in %d\n", year)
				return nil
			}
			for _, h := range hs {
				fmt.Fprintf(a.out, "%s  %-10s %s\n", h.Date, h.Kind, h.Name)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")
	return cmd
}

func newHolidayDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <date>",
		Short: "Remove a holiday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := generic.ParseDate(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.RemoveHoliday(cmd.Context(), date); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "holiday %s removed\n", date)
			return nil
		},
	}
}

func newHolidayDefaultsCmd(a *app) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Install the fixed holidays of a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.svc.InstallDefaultHolidays(cmd.Context(), year)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d holidays installed for %d\n", n, year)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")
	return cmd
}
