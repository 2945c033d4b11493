package patchcov

const (
	GeneralErrorExitCode     = 1  // bash general error exit code
	LowCoverageErrorExitCode = 12 // patch coverage is lower than the threshold exit code
)

// CheckError carries the detail error information for patchcov error
type CheckError struct {
	ExitCode   int
	Err        error
	ErrMessage string
}

func WrapErrorWithCode(err error, exitCode int, errMessage string) *CheckError {
	return &CheckError{
		ExitCode:   exitCode,
		Err:        err,
		ErrMessage: errMessage,
	}
}

func WrapError(err error, errMessage string) *CheckError {
	return WrapErrorWithCode(err, GeneralErrorExitCode, errMessage)
}

func (e *CheckError) Error() string {
	return e.Err.Error()
}
