package main

import (
	"context"
	"fmt"

	"github.com/napthedev/edura/core/user"
)

// addUser creates a user.User, or updates the one with the same ID.
func (cli *commandLine) addUser(nu user.NewUser) error {
	usr, err := cli.usrSvc.Register(context.Background(), nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "user %s <%s> saved as %s\n", usr.ID, usr.Email, usr.Role)
	return nil
}
