package main

import (
	"context"
	"fmt"
	"time"

	echoapi "github.com/napthedev/edura/apps/api/echo"
)

// token prints a signed API token for an existing user, eg. for local testing.
func (cli *commandLine) token(id string, ttl time.Duration) error {
	usr, err := cli.usrSvc.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	ss, err := echoapi.GenerateToken([]byte(cli.conf.AuthSecret), echoapi.GetUserClaims(usr, ttl))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, ss)
	return nil
}
