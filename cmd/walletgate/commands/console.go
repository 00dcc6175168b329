package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// console is the terminal a command talks to.
type console struct {
	in  *bufio.Reader
	tty *os.File // stdin when it is a terminal, for echo-free reads
	out io.Writer
	err io.Writer
}

func newConsole(in io.Reader, out, errOut io.Writer) *console {
	c := &console{
		in:  bufio.NewReader(in),
		out: out,
		err: errOut,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.tty = f
	}
	return c
}

// ask prints label and reads one line.
func (c *console) ask(label string) (string, error) {
	_, _ = fmt.Fprint(c.err, label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// secret reads a line without echo when stdin is a terminal.
func (c *console) secret(label string) (string, error) {
	if c.tty == nil {
		return c.ask(label)
	}

	_, _ = fmt.Fprint(c.err, label)
	b, err := term.ReadPassword(int(c.tty.Fd()))
	_, _ = fmt.Fprintln(c.err)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// valueOr returns value, prompting for it when empty.
func (c *console) valueOr(value, label string, hidden bool) (string, error) {
	if value != "" {
		return value, nil
	}
	if hidden {
		return c.secret(label)
	}
	return c.ask(label)
}

func (c *console) success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(c.out, "✓ "+format+"\n", args...)
}

func (c *console) warn(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(c.err, "⚠ "+format+"\n", args...)
}

func (c *console) info(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *console) title(text string) {
	color.New(color.Bold).Fprintf(c.out, "%s\n", text)
}

// table renders rows under headers without borders.
func (c *console) table(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(c.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
