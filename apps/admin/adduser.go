package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Nicko-rgb/server-notas/core"
	"github.com/Nicko-rgb/server-notas/core/user"
)

// addUser updates or creates an active admin user.User
func (cli *commandLine) addUser(dni, email, first, last, pwd string) error {
	ctx := context.Background()
	dni = core.CleanString(dni)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByDNIOrEmail(ctx, dni)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			DNI:       dni,
			Email:     email,
			FirstName: core.CleanString(first),
			LastName:  core.CleanString(last),
			Role:      user.RoleAdmin,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	usr.Email = email
	usr.Role = user.RoleAdmin
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}
