package main

import (
	"context"

	"github.com/trezcool/darasa/core/classroom"
)

func (cli *commandLine) resetPassword(classID, answer, pwd string) error {
	return cli.clsSvc.ResetPassword(context.Background(), classID, classroom.ResetPassword{
		SecretAnswer: answer,
		NewPassword:  pwd,
	})
}
