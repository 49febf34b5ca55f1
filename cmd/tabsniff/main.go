// Command tabsniff detects the separator of a delimited text file and prints
// the parsed table.
//
//	tabsniff [-json] [-rows n] [-sniff n] [file]
//
// With no file argument, or with "-", the input is read from stdin.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/tabsniff/internal/core"
	"github.com/JonMunkholm/tabsniff/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tabsniff", flag.ContinueOnError)
	fs.SetOutput(stderr)

	asJSON := fs.Bool("json", false, "print the detection as JSON")
	rows := fs.Int("rows", 20, "rows to print; 0 prints all")
	sniff := fs.Int("sniff", 20, "lines sampled when inferring a fallback separator")
	attempts := fs.Bool("attempts", false, "print every candidate's outcome")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := logging.New(stderr, *logLevel, "text")

	name := "-"
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}

	raw, err := readInput(name, stdin)
	if err != nil {
		logger.Error("read input", "file", name, "error", err)
		return 1
	}

	det, err := core.NewDetector(core.WithSniffLines(*sniff)).Detect(raw)
	if err != nil {
		logger.Error("detection failed", "file", name, "error", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(stderr, core.FormatUserError(err))
		} else {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}

	logger.Info("detected", "file", name, "label", det.Label,
		"columns", det.Table.NumColumns(), "rows", det.Table.NumRows(), "fallback", det.Fallback)

	if *asJSON {
		out := *det
		out.Table = det.Table.Head(*rows)
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			logger.Error("encode output", "error", err)
			return 1
		}
		return 0
	}

	if err := printText(stdout, det, *rows, *attempts); err != nil {
		logger.Error("write output", "error", err)
		return 1
	}
	return 0
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: no such file", name)
	}
	return data, err
}

func printText(w io.Writer, det *core.Detection, limit int, withAttempts bool) error {
	fmt.Fprintf(w, "separator: %s\n", det.Label)
	fmt.Fprintf(w, "shape:     %d columns x %d rows\n\n", det.Table.NumColumns(), det.Table.NumRows())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(det.Table.Columns, "\t"))

	shown := det.Table.Head(limit)
	for _, row := range shown.StringRows() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if hidden := det.Table.NumRows() - shown.NumRows(); hidden > 0 {
		fmt.Fprintf(w, "... %d more rows\n", hidden)
	}

	if withAttempts {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "candidate\tcolumns\trows\tscore\tresult")
		for _, a := range det.Attempts {
			result := "skipped"
			switch {
			case a.Err != "":
				result = a.Err
			case a.Qualified:
				result = "qualified"
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", a.Name, a.Columns, a.Rows, a.Score, result)
		}
		return tw.Flush()
	}
	return nil
}
