package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/darasa/core/classroom"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	clsSvc *classroom.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createclass -name NAME -question QUESTION -answer ANSWER - create a classroom; the teacher password will be prompted next")
	fmt.Println("  resetpassword -class CLASSID -answer ANSWER - reset a classroom's teacher password; the new password will be prompted next")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createClassCmd := flag.NewFlagSet("createclass", flag.ExitOnError)
	createClassName := createClassCmd.String("name", "", "The classroom name; its id is derived from it.")
	createClassQuestion := createClassCmd.String("question", "", "The password-recovery secret question.")
	createClassAnswer := createClassCmd.String("answer", "", "The password-recovery secret answer.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordClass := resetPasswordCmd.String("class", "", "The classroom id, eg. CLS-MATH-4B.")
	resetPasswordAnswer := resetPasswordCmd.String("answer", "", "The classroom's secret answer.")

	switch args[1] {
	case "createclass":
		if err := createClassCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createClassName == "" || *createClassQuestion == "" || *createClassAnswer == "" {
			createClassCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createClassCmd.Usage()
			return errHelp
		}
		return cli.createClass(*createClassName, *createClassQuestion, *createClassAnswer, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordClass == "" || *resetPasswordAnswer == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordClass, *resetPasswordAnswer, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
