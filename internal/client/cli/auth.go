package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/client/session"
	"github.com/dmitrijs2005/taskboard/internal/common"
)

// getSimpleText, getMultiline and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getMultiline = GetMultiline
var getPassword = GetPassword

// Login prompts the user for credentials and signs in.
//
// The password byte slice is wiped before returning. Signing in as a
// different user drops the previous user's cached boards.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeBytes(password)

	id, err := a.auth.Login(ctx, userName, string(password))
	if err != nil {
		return err
	}

	printlnFn("Logged in as", id.Username)
	return nil
}

// Logout clears the session locally, telling the server when it can be
// reached.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not logged in")
		return nil
	}
	a.auth.Logout(ctx)
	printlnFn("Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	id := a.auth.Identity()
	if !id.IsAuthenticated {
		printlnFn("Not logged in")
		return nil
	}

	printlnFn(fmt.Sprintf("%s (id %d)", id.Username, id.UserID))
	if name := strings.TrimSpace(id.FirstName + " " + id.LastName); name != "" {
		printlnFn("Name:", name)
	}
	if id.Email != "" {
		printlnFn("Email:", id.Email)
	}
	return nil
}

// Check validates the session against the server right away.
func (a *App) Check(ctx context.Context) error {
	switch a.auth.ValidateSession(ctx) {
	case session.OutcomeSkipped:
		printlnFn("Not logged in")
	case session.OutcomeValid:
		printlnFn("Session is valid")
	case session.OutcomeRejected:
		printlnFn("Your session has expired, please log in again")
	case session.OutcomeUnreachable:
		printlnFn("Server unreachable, keeping the current session")
	case session.OutcomeSuperseded:
		printlnFn("Session changed while checking, try again")
	}
	return nil
}

// Forget logs out and deletes the persisted session and preferences after
// an explicit confirmation.
func (a *App) Forget(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "This deletes the saved session and preferences. Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		printlnFn("Cancelled")
		return nil
	}

	if err := a.auth.ClearLocalData(ctx); err != nil {
		return err
	}
	printlnFn("Local data cleared")
	return nil
}
