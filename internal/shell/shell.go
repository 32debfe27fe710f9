/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package shell is a line-oriented driver for the canvas. Each command maps
// to one pointer, wheel or store operation, so scripted sessions exercise
// the same paths as a pointer device.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"flowcanvas/internal/canvas"
	"flowcanvas/internal/domain"
	applog "flowcanvas/internal/log"
)

// ErrExit is returned by Execute for the exit and quit commands.
var ErrExit = errors.New("exit requested")

// Options wire the shell to the outside world.
type Options struct {
	// Save persists the current document. Nil disables the save command.
	Save func(domain.Document) error
	// Export renders the document to a file and returns its path.
	Export func(doc domain.Document, format, path string) (string, error)
}

// Shell executes commands against one canvas.
type Shell struct {
	c    *canvas.Canvas
	out  io.Writer
	opts Options
	log  *slog.Logger

	ok, warn, dim func(a ...any) string
}

// New creates a shell writing its replies to out.
func New(c *canvas.Canvas, out io.Writer, opts Options) *Shell {
	return &Shell{
		c:    c,
		out:  out,
		opts: opts,
		log:  applog.WithComponent("shell"),
		ok:   color.New(color.FgGreen).SprintFunc(),
		warn: color.New(color.FgYellow).SprintFunc(),
		dim:  color.New(color.Faint).SprintFunc(),
	}
}

// Prompt shows the selection so the user knows what delete or flip affect.
func (s *Shell) Prompt() string {
	sel := s.c.Store().Selection()
	if sel.IsNone() {
		return "flowcanvas> "
	}
	return fmt.Sprintf("flowcanvas[%s]> ", sel)
}

// ParseArgs splits a line on spaces, keeping double-quoted runs together.
func ParseArgs(line string) []string {
	var args []string
	var cur strings.Builder
	inQuotes, quoted := false, false
	flush := func() {
		if cur.Len() > 0 || quoted {
			args = append(args, cur.String())
			cur.Reset()
		}
		quoted = false
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case (r == ' ' || r == '\t') && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return args
}

// Execute runs one command line. Blank lines and # comments are ignored.
func (s *Shell) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	args := ParseArgs(line)
	cmd, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
	s.log.Debug("command", "name", args[0], "args", len(args)-1)
	return cmd.run(s, args[1:])
}

// RunScript executes r line by line and stops at the first failing command.
func (s *Shell) RunScript(r io.Reader) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		if err := s.Execute(sc.Text()); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return sc.Err()
}

// Run reads commands from rl until EOF or exit. Command errors are printed
// and do not end the session.
func (s *Shell) Run(rl *readline.Instance) error {
	for {
		rl.SetPrompt(s.Prompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				fmt.Fprintln(s.out, s.dim("use exit or quit to leave"))
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.Execute(line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintln(s.out, s.warn("error:"), err)
		}
	}
}

// NewReadline builds a readline instance with command completion. An empty
// historyFile disables history.
func NewReadline(historyFile string) (*readline.Instance, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, name := range commandNames() {
		items = append(items, readline.PcItem(name))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "flowcanvas> ",
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	return rl, nil
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
