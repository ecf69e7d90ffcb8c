package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitthemes/internal/logger"
	"github.com/julianstephens/habitthemes/internal/storage"
	"github.com/julianstephens/habitthemes/internal/tracker"
)

// Kind groups errors by how a user should react to them.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindDuplicate
	KindInvalidArgument
	KindClosed
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not found"
	case KindDuplicate:
		return "duplicate"
	case KindInvalidArgument:
		return "invalid argument"
	case KindClosed:
		return "closed"
	default:
		return "storage"
	}
}

// Classify maps err to its Kind. Anything unrecognized is a storage failure.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case stderrors.Is(err, storage.ErrNotFound):
		return KindNotFound
	case stderrors.Is(err, storage.ErrDuplicate):
		return KindDuplicate
	case stderrors.Is(err, storage.ErrInvalidArgument):
		return KindInvalidArgument
	case stderrors.Is(err, tracker.ErrClosed):
		return KindClosed
	default:
		return KindStorage
	}
}

// Notice renders err as a one-line message for the user.
func Notice(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindNotFound:
		return fmt.Sprintf("Not found: %v", err)
	case KindDuplicate:
		return fmt.Sprintf("Already exists: %v", err)
	case KindInvalidArgument:
		return fmt.Sprintf("Invalid input: %v", err)
	case KindClosed:
		return "The tracker has shut down; the change was not saved"
	default:
		return fmt.Sprintf("Storage error: %v", err)
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...any) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err, "kind", Classify(err).String())
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
