package main

import (
	"context"

	"github.com/Nicko-rgb/server-notas/core"
)

func (cli *commandLine) resetPassword(login, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByDNIOrEmail(ctx, core.CleanString(login, true /* lower */))
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr, nil)
	return err
}
