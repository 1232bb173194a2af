package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/client/mutation"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Check(ctx context.Context) error
	Forget(ctx context.Context) error

	Boards(ctx context.Context) error
	Show(ctx context.Context, slug string) error
	Create(ctx context.Context) error
	Rename(ctx context.Context, id string) error
	Status(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error

	Pin(ctx context.Context, id string) error
	Unpin(ctx context.Context, id string) error
	Pins(ctx context.Context) error
	View(ctx context.Context, mode string) error
	Sort(ctx context.Context, field, direction string) error
	Panel(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: login, forget, view, sort, panel, help, exit"
	helpSignedIn  = "Available commands: boards, show <slug>, create, rename <id>, status <id> <STATUS>, " +
		"delete <id>, pin <id>, unpin <id>, pins, view <grid|list>, sort <field> <asc|desc>, panel, " +
		"whoami, check, logout, forget, help, exit"
)

// usage maps commands that take arguments to their synopsis and arity.
var usage = map[string]struct {
	text string
	args int
}{
	"show":   {"Usage: show <slug>", 1},
	"rename": {"Usage: rename <id>", 1},
	"status": {"Usage: status <id> <PLANNED|IN_PROGRESS|DONE|STOPPED|ABANDONED>", 2},
	"delete": {"Usage: delete <id>", 1},
	"pin":    {"Usage: pin <id>", 1},
	"unpin":  {"Usage: unpin <id>", 1},
	"view":   {"Usage: view <grid|list>", 1},
	"sort":   {"Usage: sort <name|status|deadline|createdAt> <asc|desc>", 2},
}

// runREPL starts the read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on a. The loop exits on EOF or when the user types
// "exit" or "quit". Errors returned by handlers are printed with their
// user-facing message, so a failed mutation shows e.g. "a board with this
// name already exists" and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("board %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if u, ok := usage[cmd]; ok && len(args) < u.args {
			printlnFn(u.text)
			continue
		}

		if done := dispatch(ctx, a, cmd, args); done {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) bool {
	var err error

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpAnonymous)
		}

	case "login":
		err = a.Login(ctx)
	case "logout":
		err = a.Logout(ctx)
	case "whoami":
		err = a.WhoAmI(ctx)
	case "check":
		err = a.Check(ctx)
	case "forget":
		err = a.Forget(ctx)

	case "boards", "ls":
		err = a.Boards(ctx)
	case "show":
		err = a.Show(ctx, args[0])
	case "create":
		err = a.Create(ctx)
	case "rename":
		err = a.Rename(ctx, args[0])
	case "status":
		err = a.Status(ctx, args[0], args[1])
	case "delete":
		err = a.Delete(ctx, args[0])

	case "pin":
		err = a.Pin(ctx, args[0])
	case "unpin":
		err = a.Unpin(ctx, args[0])
	case "pins":
		err = a.Pins(ctx)
	case "view":
		err = a.View(ctx, args[0])
	case "sort":
		err = a.Sort(ctx, args[0], args[1])
	case "panel":
		err = a.Panel(ctx)

	case "exit", "quit":
		printlnFn("Bye!")
		return true

	default:
		printlnFn("Unknown command:", cmd)
	}

	if err != nil {
		reportError(err)
	}
	return false
}

func reportError(err error) {
	printlnFn("Error:", mutation.UserMessage(err))
}
