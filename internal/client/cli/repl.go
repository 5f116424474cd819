package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	DeleteAccount(ctx context.Context) error

	Profile(ctx context.Context) error
	EditProfile(ctx context.Context) error

	Add(ctx context.Context) error
	List(ctx context.Context, category string) error
	Mine(ctx context.Context) error
	Find(ctx context.Context, expr string) error
	Show(ctx context.Context, id string) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, category string) error
	Unwatch(ctx context.Context) error

	Wish(ctx context.Context) error
	WishAdd(ctx context.Context) error
	WishDel(ctx context.Context, id string) error
}

const (
	helpLoggedOut = "Available commands: register, login, help, exit"
	helpLoggedIn  = "Available commands: profile, editprofile, add, list [category], mine, find <expr>, " +
		"show <id>, edit <id>, delete <id>, watch [category], unwatch, wish, wishadd, wishdel <id>, " +
		"logout, deleteaccount, help, exit"
)

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
// The first token of a line is the command, the rest are its arguments
// ("find" takes the rest of the line as one expression). Commands other than
// register, login, help and exit need a signed-in user. Errors returned by
// handlers are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("th %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if err := dispatch(ctx, a, cmd, args); err != nil {
			if errors.Is(err, errExit) {
				printlnFn("Bye!")
				return
			}
			printlnFn("Error:", err)
		}
	}
}

var (
	errExit     = errors.New("exit")
	errNotLogin = errors.New("please login first")
)

// protectedCommands need a signed-in user.
var protectedCommands = map[string]bool{
	"logout": true, "deleteaccount": true, "profile": true, "editprofile": true,
	"add": true, "list": true, "l": true, "mine": true, "find": true, "show": true,
	"edit": true, "delete": true, "watch": true, "unwatch": true,
	"wish": true, "wishadd": true, "wishdel": true,
}

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpLoggedIn)
		} else {
			printlnFn(helpLoggedOut)
		}
		return nil
	case "exit", "quit":
		return errExit
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !protectedCommands[cmd] {
		return fmt.Errorf("unknown command: %s", cmd)
	}
	if !a.isLoggedIn() {
		return errNotLogin
	}

	arg := func() string {
		if len(args) == 0 {
			return ""
		}
		return args[0]
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "deleteaccount":
		return a.DeleteAccount(ctx)
	case "profile":
		return a.Profile(ctx)
	case "editprofile":
		return a.EditProfile(ctx)
	case "add":
		return a.Add(ctx)
	case "l", "list":
		return a.List(ctx, strings.Join(args, " "))
	case "mine":
		return a.Mine(ctx)
	case "find":
		if len(args) == 0 {
			return usage("find <expr>")
		}
		return a.Find(ctx, strings.Join(args, " "))
	case "show":
		if arg() == "" {
			return usage("show <id>")
		}
		return a.Show(ctx, arg())
	case "edit":
		if arg() == "" {
			return usage("edit <id>")
		}
		return a.Edit(ctx, arg())
	case "delete":
		if arg() == "" {
			return usage("delete <id>")
		}
		return a.Delete(ctx, arg())
	case "watch":
		return a.Watch(ctx, strings.Join(args, " "))
	case "unwatch":
		return a.Unwatch(ctx)
	case "wish":
		return a.Wish(ctx)
	case "wishadd":
		return a.WishAdd(ctx)
	default: // wishdel
		if arg() == "" {
			return usage("wishdel <id>")
		}
		return a.WishDel(ctx, arg())
	}
}
