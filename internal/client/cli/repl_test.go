package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	err   error
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.loggedIn = true
	return f.record("register")
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) DeleteAccount(ctx context.Context) error { return f.record("deleteaccount") }
func (f *fakeExec) Profile(ctx context.Context) error       { return f.record("profile") }
func (f *fakeExec) EditProfile(ctx context.Context) error   { return f.record("editprofile") }
func (f *fakeExec) Add(ctx context.Context) error           { return f.record("add") }
func (f *fakeExec) List(ctx context.Context, category string) error {
	return f.record("list:" + category)
}
func (f *fakeExec) Mine(ctx context.Context) error            { return f.record("mine") }
func (f *fakeExec) Find(ctx context.Context, e string) error  { return f.record("find:" + e) }
func (f *fakeExec) Show(ctx context.Context, id string) error { return f.record("show:" + id) }
func (f *fakeExec) Edit(ctx context.Context, id string) error { return f.record("edit:" + id) }
func (f *fakeExec) Delete(ctx context.Context, id string) error {
	return f.record("delete:" + id)
}
func (f *fakeExec) Watch(ctx context.Context, c string) error { return f.record("watch:" + c) }
func (f *fakeExec) Unwatch(ctx context.Context) error         { return f.record("unwatch") }
func (f *fakeExec) Wish(ctx context.Context) error            { return f.record("wish") }
func (f *fakeExec) WishAdd(ctx context.Context) error         { return f.record("wishadd") }
func (f *fakeExec) WishDel(ctx context.Context, id string) error {
	return f.record("wishdel:" + id)
}

// capturePrint replaces printlnFn and returns everything printed.
func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func script(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestRunREPL_DispatchesCommandsWithArguments(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, script(
		"login",
		"list",
		"list Maison",
		"l",
		"mine",
		`find condition == "New"`,
		"show p1",
		"edit p1",
		"delete p1",
		"watch Femmes",
		"unwatch",
		"wish",
		"wishadd",
		"wishdel 3",
		"profile",
		"editprofile",
		"add",
		"deleteaccount",
		"logout",
		"exit",
	))

	assert.Equal(t, []string{
		"login", "list:", "list:Maison", "list:", "mine", `find:condition == "New"`,
		"show:p1", "edit:p1", "delete:p1", "watch:Femmes", "unwatch",
		"wish", "wishadd", "wishdel:3", "profile", "editprofile", "add", "deleteaccount", "logout",
	}, exec.calls)
}

func TestRunREPL_ProtectedCommandsNeedLogin(t *testing.T) {
	out := capturePrint(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, script("list", "add", "wish", "quit"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Error: please login first")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_UsageUnknownAndHelp(t *testing.T) {
	out := capturePrint(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, script("show", "edit", "delete", "wishdel", "find", "foobar", "help", "exit"))

	assert.Empty(t, exec.calls)
	for _, want := range []string{
		"Error: usage: show <id>",
		"Error: usage: edit <id>",
		"Error: usage: delete <id>",
		"Error: usage: wishdel <id>",
		"Error: usage: find <expr>",
		"Error: unknown command: foobar",
		helpLoggedIn,
	} {
		assert.Contains(t, *out, want)
	}
}

func TestRunREPL_HelpWhenLoggedOut(t *testing.T) {
	out := capturePrint(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, script("help"))

	assert.Contains(t, *out, helpLoggedOut)
}

func TestRunREPL_HandlerErrorsArePrintedAndLoopContinues(t *testing.T) {
	out := capturePrint(t)

	exec := &fakeExec{loggedIn: true, err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "" }, script("mine", "wish", "exit"))

	assert.Equal(t, []string{"mine", "wish"}, exec.calls)
	assert.Contains(t, *out, "Error: boom")
}

func TestRunREPL_StopsAtEOFAndOnCancelledContext(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("mine")))
	assert.Equal(t, []string{"mine"}, exec.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec = &fakeExec{loggedIn: true}
	runREPL(ctx, exec, func() string { return "" }, script("mine"))
	assert.Empty(t, exec.calls)
}
