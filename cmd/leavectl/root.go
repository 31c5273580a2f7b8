package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqldb"
)

// app carries what every subcommand needs once the root has opened the store.
type app struct {
	in  *bufio.Reader
	out io.Writer

	cfgFile string
	yes     bool
	verbose bool

	logger *slog.Logger
	svc    *leave.Service
	store  *sqldb.Store
}

// execute runs one command line and closes the store it opened.
func execute(in io.Reader, out, errOut io.Writer, args []string) error {
	a := &app{in: bufio.NewReader(in), out: out}
	root := newRootCmd(a)
	root.SetErr(errOut)
	root.SetArgs(args)
	defer a.close()
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "leavectl",
		Short:         "Manage agents, leave and the holiday calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "replace overlapped annual leave without asking")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newAgentCmd(a),
		newLeaveCmd(a),
		newHolidayCmd(a),
		newAuditCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.logger = cfg.NewLogger(cmd.ErrOrStderr()).With("run_id", uuid.NewString(), "command", cmd.CommandPath())

	svc, store, err := cfg.NewService(cmd.Context(), a.logger, nil)
	if err != nil {
		return err
	}
	a.svc, a.store = svc, store
	return nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

// confirm prints the replacement summary and reads y/N.
func (a *app) confirm(s leave.Summary) bool {
	fmt.Fprintf(a.out, "%s leave %s overlaps annual leave of agent %d:\n", s.Type, s.Requested, s.AgentID)
	for _, l := range s.Replaced {
		fmt.Fprintf(a.out, "  #%-6d %s  %s days\n", l.ID, l.Period(), l.DaysTaken)
	}
	fmt.Fprintln(a.out, "The annual leave will be split around the new period.")
	if a.yes {
		return true
	}

	fmt.Fprint(a.out, "Proceed? [y/N] ")
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
