package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/teamboard/errors"
)

// ErrorHandler prints user-friendly messages for coded errors.
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates an error handler writing to stderr.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints err and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out
	if out == nil {
		out = os.Stderr
	}

	var tbErr *errors.TeamboardError
	stderrors.As(err, &tbErr)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Configuration file not found: %v\n", detail(tbErr, "path"))
		fmt.Fprintln(out, "Omit --config to run with defaults.")

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(out, "❌ Invalid configuration: %v\n", err)

	case errors.ErrCodeNotFound:
		if id := detail(tbErr, "teamId"); id != "?" {
			fmt.Fprintf(out, "❌ Team '%v' not found\n", id)
		} else {
			fmt.Fprintf(out, "❌ %v\n", err)
		}

	case errors.ErrCodeValidation:
		fmt.Fprintf(out, "❌ %v\n", err)

	case errors.ErrCodeLockTimeout:
		fmt.Fprintf(out, "❌ Could not lock %v; another process is holding it\n", detail(tbErr, "path"))

	case errors.ErrCodeTransport:
		fmt.Fprintf(out, "❌ Cannot reach the teamboard server: %v\n", err)
		fmt.Fprintln(out, "Start it with 'teamboard serve'.")

	case errors.ErrCodeCapacity:
		fmt.Fprintln(out, "❌ The server has no free stream slots; try again later")

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose && tbErr != nil {
		fmt.Fprintf(out, "\nError details:\n%s\n", tbErr.ToJSON())
	}
	return err
}

func detail(err *errors.TeamboardError, key string) interface{} {
	if err == nil || err.Details == nil {
		return "?"
	}
	if v, ok := err.Details[key]; ok {
		return v
	}
	return "?"
}
