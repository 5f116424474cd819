package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tradehub/internal/common"
)

// Register prompts for email, password and full name and creates an account.
// On success the user is signed in. The password is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	fullName, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}

	id, res := a.authService.Register(ctx, email, password, fullName)
	if err := resultError("register", res); err != nil {
		return err
	}

	a.signedIn(ctx, id)
	fmt.Fprintf(a.out, "Welcome, %s!\n", id.Email)
	return nil
}

// Login prompts for credentials and signs in. A previous session is
// replaced.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, res := a.authService.Login(ctx, email, password)
	if err := resultError("login", res); err != nil {
		return err
	}

	if a.isLoggedIn() {
		a.signedOut(ctx)
	}
	a.signedIn(ctx, id)
	fmt.Fprintf(a.out, "Signed in as %s\n", id.Email)
	return nil
}

// Logout forgets the local session. A failure to reach the server is
// reported but the user is signed out anyway.
func (a *App) Logout(ctx context.Context) error {
	res := a.authService.Logout(ctx)
	a.signedOut(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return resultError("server sign-out", res)
}

var errNotConfirmed = errors.New("not confirmed")

// DeleteAccount removes the account, its profile and all its products after
// an explicit confirmation and the password.
func (a *App) DeleteAccount(ctx context.Context) error {
	confirm, err := getSimpleText(a.reader, "This deletes your profile and all your products. Type DELETE to confirm", a.out)
	if err != nil {
		return err
	}
	if confirm != "DELETE" {
		return errNotConfirmed
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.authService.DeleteAccount(ctx, a.identity, password)
	if err := resultError("delete account", res); err != nil {
		return err
	}

	a.signedOut(ctx)
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}
