package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"saver-cli/internal/cli"
)

func isFolderID(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "fld-") {
		return false
	}
	return len(s) > len("fld-")
}

// rewriteDirectFolderArgs makes `saver <folder-id>` behave like
// `saver folders show <folder-id>`. Cobra treats the first non-flag token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come
// first, so this looks for the first positional token rather than argv[1].
func rewriteDirectFolderArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so a folder id is
	// never swallowed by mistake.
	valueFlags := map[string]bool{
		"--config":    true,
		"--dir":       true,
		"--backend":   true,
		"--key":       true,
		"--redis-url": true,
		"--bus":       true,
		"--log-level": true,
		"--format":    true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
		"--reveal": true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "folders", "show")
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isFolderID(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		if isFolderID(a) {
			return insert(i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectFolderArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
