package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/arnodel/jsonlines"
	"github.com/arnodel/jsonlines/encoding/query"
	"github.com/arnodel/jsonlines/internal/follow"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

func main() {
	// Do not handle SIGPIPE, we'll do it ourselves (see error handling at the bottom of main).
	signal.Ignore(syscall.SIGPIPE)

	// Display a stack trace on panic
	defer func() {
		if e := recover(); e != nil {
			fmt.Fprintf(os.Stderr, "%s: %s", e, debug.Stack())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Set up stdout for handling colors
	var stdout io.Writer = os.Stdout
	if tty {
		stdout = colorable.NewColorableStdout()
	}

	err := run(ctx, os.Args[1:], os.Stdin, stdout, os.Stderr, tty)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, syscall.EPIPE):
		// stdout is a pipe and something closed it (e.g. 'head' or 'less').
		// In this case we don't want to complain.
	case errors.Is(err, context.Canceled):
		// Interrupted while following a file.
	default:
		fatalError("jl: %s\n", err)
	}
}

type options struct {
	file   string
	follow bool
	path   string
	pretty bool
	color  string
	chunk  int
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	var opts options
	fs := flag.NewFlagSet("jl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.file, "file", "", "read from this file instead of stdin")
	fs.BoolVar(&opts.follow, "follow", false, "keep reading as the file grows (requires -file)")
	fs.StringVar(&opts.path, "path", "", "only output the value at this gjson path in each line")
	fs.BoolVar(&opts.pretty, "pretty", false, "indent each value over several lines")
	fs.StringVar(&opts.color, "color", "auto", "colorize output: auto, always, never")
	fs.IntVar(&opts.chunk, "chunk", jsonlines.DefaultChunkSize, "bytes requested from the input at a time")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if opts.follow && opts.file == "" {
		return nil, errors.New("-follow requires -file")
	}
	switch opts.color {
	case "auto", "always", "never":
	default:
		return nil, fmt.Errorf("invalid -color value: %q (use auto, always, or never)", opts.color)
	}
	return &opts, nil
}

const usage = `jl - JSON Lines reader

USAGE:
  jl [options] < input.jsonl
  jl -file app.log -follow -path msg

Each non-empty line of the input must hold one JSON value.  Lines holding
null, and lines where -path matches nothing, are skipped.

OPTIONS:
`

// run copies the JSON Lines read from stdin (or -file) to stdout, one value
// per line.  Usage goes to stderr.  tty tells whether stdout is a terminal.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, tty bool) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	var src io.Reader = stdin
	var splitOpts = []jsonlines.Option{jsonlines.WithChunkSize(opts.chunk)}
	switch {
	case opts.follow:
		r, err := follow.Open(opts.file)
		if err != nil {
			return err
		}
		src = r
		splitOpts = append(splitOpts, jsonlines.WithCloseSource())
	case opts.file != "":
		f, err := os.Open(opts.file)
		if err != nil {
			return err
		}
		src = f
		splitOpts = append(splitOpts, jsonlines.WithCloseSource())
	}

	dec := jsonlines.NewDecoder[gjson.Result](src, query.Codec{Path: opts.path}, splitOpts...)
	defer dec.Close()

	out := bufio.NewWriter(stdout)
	defer out.Flush()
	enc := jsonlines.NewEncoder[[]byte](out, rawCodec{})

	style := colorStyle(opts.color, tty)
	for {
		v, err := dec.NextContext(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(format(v, opts.pretty, style)); err != nil {
			return err
		}
		// If we are writing to a terminal, flush after each line so user gets feedback early.
		if tty || opts.follow {
			if err := enc.Flush(); err != nil {
				return err
			}
		}
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	return dec.Close()
}

// format renders v compactly or indented, without a trailing newline.
func format(v gjson.Result, indent bool, style *pretty.Style) []byte {
	var b []byte
	if indent {
		b = pretty.Pretty([]byte(v.Raw))
		b = b[:len(b)-1]
	} else {
		b = pretty.Ugly([]byte(v.Raw))
	}
	if style != nil {
		b = pretty.Color(b, style)
	}
	return b
}

func colorStyle(mode string, tty bool) *pretty.Style {
	if mode == "always" || (mode == "auto" && tty) {
		return &defaultStyle
	}
	return nil
}

// rawCodec writes values that are already encoded.
type rawCodec struct{}

func (rawCodec) Encode(w io.Writer, v any) error {
	_, err := w.Write(v.([]byte))
	return err
}

func (rawCodec) Decode(io.Reader, any) error {
	return errors.New("rawCodec cannot decode")
}

func fatalError(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, msg, args...)
	os.Exit(1)
}

// Some color ANSI codes
const (
	Reset = "\033[0m"

	Yellow     = "\033[33m"
	Green      = "\033[32m"
	Magenta    = "\033[35m"
	White      = "\033[37m"
	DimWhite   = "\033[37;2m"
	BrightBlue = "\033[34;1m"
)

// The colors I chose :)
var defaultStyle = pretty.Style{
	Key:    [2]string{BrightBlue, Reset},
	String: [2]string{Green, Reset},
	Number: [2]string{Yellow, Reset},
	True:   [2]string{White, Reset},
	False:  [2]string{White, Reset},
	Null:   [2]string{DimWhite, Reset},
	Escape: [2]string{Magenta, Reset},
}
