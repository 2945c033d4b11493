package main

import (
	"errors"
	"os"

	"github.com/patchcov/patchcov/pkg/cmd"
	"github.com/patchcov/patchcov/pkg/patchcov"
)

func main() {
	command := cmd.NewPatchCovCommand()
	if err := command.Execute(); err != nil {
		var checkErr *patchcov.CheckError
		if errors.As(err, &checkErr) {
			os.Exit(checkErr.ExitCode)
		}
		os.Exit(patchcov.GeneralErrorExitCode)
	}
}
