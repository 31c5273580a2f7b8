/*
leavectl - Command-line client for the leave engine

PURPOSE:
  Runs the same operations as the HTTP API directly against the database:
  agent and leave maintenance, the holiday calendar and the day-count audit.

CONFIGURATION:
  Same sources as the server (config.Load): --config file, LEAVE_*
  environment variables, defaults.

CONFIRMATION:
  A submit or modify that would split annual leave prints the replacement
  summary and asks on stdin. --yes answers for you.

EXAMPLES:
  leavectl agent add --last Alaoui --first Sara --number P100 --balance 30
  leavectl leave submit --agent 1 --type annual --start 2024-01-01 --end 2024-01-31
  leavectl leave submit --agent 1 --type sick --start 2024-01-10 --end 2024-01-12 --days 3 --yes
  leavectl leave delete 2
  leavectl holiday defaults --year 2024
  leavectl audit --year 2024
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := execute(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
