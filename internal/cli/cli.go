package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"jobtrack/internal/session"
)

// Run executes the CLI with the given arguments and returns the exit code.
// dataDir is where backups go by default.
func Run(args []string, sess *session.Session, dataDir string) int {
	cmd := &command{ctx: context.Background(), sess: sess, dataDir: dataDir, now: time.Now, out: os.Stdout, errOut: os.Stderr}
	return run(cmd, args)
}

func run(cmd *command, args []string) int {
	stdout, stderr := cmd.out, cmd.errOut
	if len(args) == 0 {
		printUsage(stdout)
		return 1
	}

	name, cmdArgs := args[0], args[1:]

	var code int
	switch name {
	case "ls", "list", "l":
		code = cmd.list(cmdArgs)
	case "add", "a":
		code = cmd.add(cmdArgs)
	case "move", "mv":
		code = cmd.move(cmdArgs)
	case "rm", "delete", "del":
		code = cmd.remove(cmdArgs)
	case "props", "columns":
		code = cmd.props(cmdArgs)
	case "export":
		code = cmd.export(cmdArgs)
	case "backup":
		code = cmd.backup(cmdArgs)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", name)
		printUsage(stderr)
		return 1
	}

	if err := cmd.sess.Flush(cmd.ctx); err != nil {
		fmt.Fprintf(stderr, "Warning: settings may not be saved: %v\n", err)
	}
	return code
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `jobtrack - Job application tracker

Usage: jobtrack [flags] [command] [arguments]

Commands:
  ls, list    List applications as a table
              jobtrack ls --search acme
              jobtrack ls --filter stage=tech --sort company_score:desc
              jobtrack ls --group stage --agg company_score=avg

  add, a      Add an application
              jobtrack add --company Acme --position "Backend Engineer" [--stage HR] [--job-type Full-time]

  move, mv    Move an application to another stage
              jobtrack move <id> <stage>

  rm          Delete applications
              jobtrack rm <id>...

  props       List the table columns

  export      Export applications
              jobtrack export ics [--id <id>] [-o calendar.ics]
              jobtrack export csv [--scope all|favorites|active] [-o applications.csv]

  backup      Zip settings, records and uploads
              jobtrack backup [-o archive.zip]
              Without -o the archive goes to <data-dir>/backups, keeping the newest 5

Flags:
  -d, --data-dir <dir>   Data directory
      --view <name>      Initial view: table, board

Running jobtrack without arguments launches the interactive TUI.`)
}
