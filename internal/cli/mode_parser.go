package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeAPI    = "api"
	ModeWorker = "worker"
	ModeToken  = "token"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeAPI, "http", "a":
		return ModeAPI, true
	case ModeWorker, "match-worker", "w":
		return ModeWorker, true
	case ModeToken, "t":
		return ModeToken, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `worker --prefetch=8`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for _, arg := range args {
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<api|worker|token>")
	}

	m, ok := isKnownMode(mode)
	if !ok {
		return "", out, fmt.Errorf("unknown mode %q", mode)
	}
	return m, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./gogogo --mode=<mode> [flags]

Modes:
  api       HTTP API for offers, requests, users and car photos
  worker    Match job consumer: matching, enrichment and bot notifications
  token     Print a signed webhook token for testing the bot endpoint

Examples:
  ./gogogo --mode=api --max-concurrent=150
  ./gogogo --mode=worker --prefetch=8 --max-concurrent=8
  ./gogogo --mode=token --event=new_offer_found`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./gogogo --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
