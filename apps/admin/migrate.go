package main

import (
	"context"

	"github.com/pressly/goose/v3"

	"github.com/napthedev/edura/storage/database"
)

var gooseRunFunc = goose.RunContext // mockable

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(context.Background(), args[0], cli.db, database.MigrationsDir, arguments...)
}
