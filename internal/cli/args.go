package cli

import "strings"

type cliOptions struct {
	file     string
	agentID  string
	markdown bool
}

func parseArgs(args []string) (cliOptions, []string) {
	opts := cliOptions{}
	positional := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--file="):
			opts.file = strings.TrimSpace(strings.TrimPrefix(arg, "--file="))
		case strings.HasPrefix(arg, "--agent-id="):
			opts.agentID = strings.TrimSpace(strings.TrimPrefix(arg, "--agent-id="))
		case arg == "--markdown":
			opts.markdown = true
		default:
			positional = append(positional, arg)
		}
	}
	return opts, positional
}
