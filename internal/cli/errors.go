package cli

import (
	"fmt"
	"strings"
)

type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func errUsage(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// errIncompleteOrder reports ids a full reorder left out or repeated.
func errIncompleteOrder(kind string, missing, repeated []string) error {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(repeated) > 0 {
		parts = append(parts, "repeated: "+strings.Join(repeated, ", "))
	}
	return errUsage("reorder must list every %s exactly once (%s)", kind, strings.Join(parts, "; "))
}
