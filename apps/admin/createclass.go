package main

import (
	"context"
	"fmt"

	"github.com/trezcool/darasa/core/classroom"
)

func (cli *commandLine) createClass(name, question, answer, pwd string) error {
	cls, token, err := cli.clsSvc.Create(context.Background(), classroom.NewClassroom{
		Name:           name,
		Password:       pwd,
		SecretQuestion: question,
		SecretAnswer:   answer,
	})
	if err != nil {
		return err
	}
	fmt.Printf("classroom created: %s\n", cls.ID)
	fmt.Printf("teacher token: %s\n", token)
	return nil
}
