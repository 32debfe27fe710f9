/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shell

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"flowcanvas/internal/document"
	"flowcanvas/internal/domain"
	"flowcanvas/internal/drag"
	"flowcanvas/internal/geometry"
	"flowcanvas/internal/stylefield"
)

type command struct {
	usage string
	help  string
	run   func(s *Shell, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":     {"help [command]", "list commands or show one command", cmdHelp},
		"hit":      {"hit X Y", "report what lies under a screen point", cmdHit},
		"down":     {"down [touch] X Y", "press at a screen point", cmdDown},
		"move":     {"move [touch] X Y", "move the active pointer", cmdMove},
		"up":       {"up [touch]", "release the pointer", cmdUp},
		"click":    {"click X Y", "press and release at a screen point", cmdClick},
		"drag":     {"drag [touch] X1 Y1 X2 Y2 [STEPS]", "press, move in steps, release", cmdDrag},
		"dblclick": {"dblclick X Y", "start editing the node under a point", cmdDoubleClick},
		"type":     {"type TEXT", "commit text to the node being edited", cmdType},
		"wheel":    {"wheel X Y DY", "zoom around a point, negative DY zooms in", cmdWheel},
		"zoom":     {"zoom in|out|reset", "step the zoom or restore the default view", cmdZoom},
		"fit":      {"fit W H", "frame the document on a W x H screen", cmdFit},
		"view":     {"view", "print the viewport", cmdView},
		"nodes":    {"nodes", "list nodes", cmdNodes},
		"edges":    {"edges", "list edges with resolved end points", cmdEdges},
		"select":   {"select node|edge ID | select none", "change the selection", cmdSelect},
		"add":      {"add X Y TEXT", "add a node at a document point", cmdAdd},
		"connect":  {"connect FROM TO", "connect two nodes on facing sides", cmdConnect},
		"delete":   {"delete", "delete the selected node or edge", cmdDelete},
		"flip":     {"flip EDGE", "swap the ends of an edge", cmdFlip},
		"style":    {"style NODE KEY=VALUE...", "bg, border, border-width, radius, text-color, font-size, weight", cmdStyle},
		"estyle":   {"estyle EDGE KEY=VALUE...", "color, width, dashed", cmdEdgeStyle},
		"label":    {"label EDGE TEXT [T] [SIZE]", "set an edge label", cmdLabel},
		"unlabel":  {"unlabel EDGE", "remove an edge label", cmdUnlabel},
		"title":    {"title TEXT", "rename the document", cmdTitle},
		"save":     {"save", "write the document to disk", cmdSave},
		"export":   {"export svg|png|pdf [PATH]", "render the document to a file", cmdExport},
		"exit":     {"exit", "leave the shell", cmdExit},
		"quit":     {"quit", "leave the shell", cmdExit},
	}
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func usageErr(name string) error {
	return fmt.Errorf("usage: %s", commands[name].usage)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func parsePoint(x, y string) (geometry.Pt, error) {
	px, err := parseFloat(x)
	if err != nil {
		return geometry.Pt{}, err
	}
	py, err := parseFloat(y)
	if err != nil {
		return geometry.Pt{}, err
	}
	return geometry.Pt{X: px, Y: py}, nil
}

// source strips an optional leading "touch" or "mouse".
func source(args []string) (drag.Source, []string) {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "touch":
			return drag.Touch, args[1:]
		case "mouse":
			return drag.Mouse, args[1:]
		}
	}
	return drag.Mouse, args
}

func cmdHelp(s *Shell, args []string) error {
	if len(args) > 0 {
		c, ok := commands[args[0]]
		if !ok {
			return fmt.Errorf("unknown command %q", args[0])
		}
		s.printf("%s\n  %s\n", c.usage, c.help)
		return nil
	}
	for _, n := range commandNames() {
		c := commands[n]
		s.printf("  %-36s %s\n", c.usage, s.dim(c.help))
	}
	return nil
}

func cmdHit(s *Shell, args []string) error {
	if len(args) != 2 {
		return usageErr("hit")
	}
	p, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	s.printf("%s\n", s.c.HitTest(p))
	return nil
}

func cmdDown(s *Shell, args []string) error {
	src, args := source(args)
	if len(args) != 2 {
		return usageErr("down")
	}
	p, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	s.printf("%s\n", s.c.PointerDown(src, p))
	return nil
}

func cmdMove(s *Shell, args []string) error {
	src, args := source(args)
	if len(args) != 2 {
		return usageErr("move")
	}
	p, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	s.c.PointerMove(src, p)
	return nil
}

func cmdUp(s *Shell, args []string) error {
	src, args := source(args)
	if len(args) != 0 {
		return usageErr("up")
	}
	s.c.PointerUp(src)
	return nil
}

func cmdClick(s *Shell, args []string) error {
	if len(args) != 2 {
		return usageErr("click")
	}
	p, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	h := s.c.PointerDown(drag.Mouse, p)
	s.c.PointerUp(drag.Mouse)
	s.printf("%s\n", h)
	return nil
}

func cmdDrag(s *Shell, args []string) error {
	src, args := source(args)
	if len(args) != 4 && len(args) != 5 {
		return usageErr("drag")
	}
	from, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	to, err := parsePoint(args[2], args[3])
	if err != nil {
		return err
	}
	steps := 4
	if len(args) == 5 {
		n, err := strconv.Atoi(args[4])
		if err != nil || n < 1 {
			return fmt.Errorf("steps must be a positive integer")
		}
		steps = n
	}
	h := s.c.PointerDown(src, from)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		s.c.PointerMove(src, geometry.Pt{X: from.X + (to.X-from.X)*t, Y: from.Y + (to.Y-from.Y)*t})
	}
	s.c.PointerUp(src)
	s.printf("%s\n", h)
	return nil
}

func cmdDoubleClick(s *Shell, args []string) error {
	if len(args) != 2 {
		return usageErr("dblclick")
	}
	p, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	if !s.c.DoubleClick(p) {
		return errors.New("no node under point")
	}
	s.printf("editing %s\n", s.c.Store().SelectedNode())
	return nil
}

func cmdType(s *Shell, args []string) error {
	if !s.c.CommitEdit(strings.Join(args, " ")) {
		return errors.New("no node is being edited")
	}
	return nil
}

func cmdWheel(s *Shell, args []string) error {
	if len(args) != 3 {
		return usageErr("wheel")
	}
	p, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	dy, err := parseFloat(args[2])
	if err != nil {
		return err
	}
	s.c.Wheel(p, dy)
	return cmdView(s, nil)
}

func cmdZoom(s *Shell, args []string) error {
	if len(args) != 1 {
		return usageErr("zoom")
	}
	switch args[0] {
	case "in":
		s.c.ZoomIn()
	case "out":
		s.c.ZoomOut()
	case "reset":
		s.c.Viewport().Reset()
	default:
		return usageErr("zoom")
	}
	return cmdView(s, nil)
}

func cmdFit(s *Shell, args []string) error {
	if len(args) != 2 {
		return usageErr("fit")
	}
	size, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	s.c.Fit(size.X, size.Y)
	return cmdView(s, nil)
}

func cmdView(s *Shell, _ []string) error {
	v := s.c.Viewport().Viewport()
	s.printf("view x=%g y=%g zoom=%g\n", geometry.FloatRound(v.X, 3), geometry.FloatRound(v.Y, 3), geometry.FloatRound(v.Zoom, 3))
	return nil
}

func cmdNodes(s *Shell, _ []string) error {
	for _, n := range s.c.Store().Nodes() {
		s.printf("%s %s (%g,%g) %gx%g %q\n", n.ID, n.Shape,
			geometry.FloatRound(n.Position.X, 3), geometry.FloatRound(n.Position.Y, 3), n.Width, n.Height, n.Content)
	}
	return nil
}

func cmdEdges(s *Shell, _ []string) error {
	for _, l := range s.c.Store().Lines() {
		a, b := l.Points[0], l.Points[len(l.Points)-1]
		s.printf("%s %s -> %s (%g,%g)->(%g,%g)", l.Edge.ID, l.Edge.From, l.Edge.To,
			geometry.FloatRound(a.X, 3), geometry.FloatRound(a.Y, 3), geometry.FloatRound(b.X, 3), geometry.FloatRound(b.Y, 3))
		if l.Edge.Label != nil {
			s.printf(" %q", l.Edge.Label.Text)
		}
		s.printf("\n")
	}
	return nil
}

func cmdSelect(s *Shell, args []string) error {
	st := s.c.Store()
	switch {
	case len(args) == 1 && args[0] == "none":
		s.c.Selection().Clear()
	case len(args) == 2 && args[0] == "node":
		if _, ok := st.Node(args[1]); !ok {
			return fmt.Errorf("%w: %s", document.ErrUnknownNode, args[1])
		}
		s.c.Selection().SelectNode(args[1])
	case len(args) == 2 && args[0] == "edge":
		if _, ok := st.Edge(args[1]); !ok {
			return fmt.Errorf("%w: %s", document.ErrUnknownEdge, args[1])
		}
		s.c.Selection().SelectEdge(args[1])
	default:
		return usageErr("select")
	}
	s.printf("%s\n", st.Selection())
	return nil
}

func cmdAdd(s *Shell, args []string) error {
	if len(args) < 3 {
		return usageErr("add")
	}
	p, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}
	id := s.c.Store().AddNode(domain.Node{Position: p, Content: strings.Join(args[2:], " ")})
	s.printf("%s %s\n", s.ok("added"), id)
	return nil
}

func cmdConnect(s *Shell, args []string) error {
	if len(args) != 2 {
		return usageErr("connect")
	}
	id, err := s.c.Connect(args[0], args[1])
	if err != nil {
		return err
	}
	s.printf("%s %s\n", s.ok("added"), id)
	return nil
}

func cmdDelete(s *Shell, _ []string) error {
	sel := s.c.Store().Selection()
	if !s.c.DeleteSelection() {
		return errors.New("nothing selected")
	}
	s.printf("%s %s\n", s.ok("deleted"), sel.ID())
	return nil
}

func cmdFlip(s *Shell, args []string) error {
	if len(args) != 1 {
		return usageErr("flip")
	}
	if !s.c.Store().FlipEdge(args[0]) {
		return fmt.Errorf("%w: %s", document.ErrUnknownEdge, args[0])
	}
	return nil
}

// keyValues splits KEY=VALUE arguments.
func keyValues(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", a)
		}
		out[strings.ToLower(k)] = v
	}
	return out, nil
}

func colour(v string) (*string, error) {
	c, ok := stylefield.ParseHex(v)
	if !ok {
		return nil, fmt.Errorf("not a colour: %q", v)
	}
	h := stylefield.FormatHex(c)
	return &h, nil
}

func number(v string, r stylefield.Range) (*float64, error) {
	f, ok := stylefield.Commit(v, r)
	if !ok {
		return nil, fmt.Errorf("not a number: %q", v)
	}
	return &f, nil
}

func cmdStyle(s *Shell, args []string) error {
	if len(args) < 2 {
		return usageErr("style")
	}
	kv, err := keyValues(args[1:])
	if err != nil {
		return err
	}
	var p domain.NodeStylePatch
	for k, v := range kv {
		switch k {
		case "bg", "background":
			p.BackgroundColor, err = colour(v)
		case "border":
			p.BorderColor, err = colour(v)
		case "text-color":
			p.TextColor, err = colour(v)
		case "border-width":
			p.BorderWidth, err = number(v, stylefield.BorderWidth)
		case "radius":
			p.BorderRadius, err = number(v, stylefield.BorderRadius)
		case "font-size":
			p.FontSize, err = number(v, stylefield.NodeFontSize)
		case "weight":
			if v != "normal" && v != "bold" {
				err = fmt.Errorf("weight must be normal or bold")
			}
			w := v
			p.FontWeight = &w
		default:
			err = fmt.Errorf("unknown node style key %q", k)
		}
		if err != nil {
			return err
		}
	}
	if !s.c.Store().UpdateNodeStyle(args[0], p) {
		return fmt.Errorf("%w: %s", document.ErrUnknownNode, args[0])
	}
	return nil
}

func cmdEdgeStyle(s *Shell, args []string) error {
	if len(args) < 2 {
		return usageErr("estyle")
	}
	kv, err := keyValues(args[1:])
	if err != nil {
		return err
	}
	var p document.EdgeStylePatch
	for k, v := range kv {
		switch k {
		case "color":
			p.Color, err = colour(v)
		case "width":
			p.Width, err = number(v, stylefield.EdgeWidth)
		case "dashed":
			var b bool
			b, err = strconv.ParseBool(v)
			p.Dashed = &b
		default:
			err = fmt.Errorf("unknown edge style key %q", k)
		}
		if err != nil {
			return err
		}
	}
	if !s.c.Store().UpdateEdgeStyle(args[0], p) {
		return fmt.Errorf("%w: %s", document.ErrUnknownEdge, args[0])
	}
	return nil
}

func cmdLabel(s *Shell, args []string) error {
	if len(args) < 2 || len(args) > 4 {
		return usageErr("label")
	}
	l := &domain.EdgeLabel{Text: args[1], T: domain.DefaultLabelT, FontSize: domain.DefaultLabelFontSize}
	if e, ok := s.c.Store().Edge(args[0]); ok && e.Label != nil {
		l.T, l.FontSize = e.Label.T, e.Label.FontSize
	}
	if len(args) > 2 {
		t, err := number(args[2], stylefield.LabelPosition)
		if err != nil {
			return err
		}
		l.T = *t
	}
	if len(args) > 3 {
		size, err := number(args[3], stylefield.LabelFontSize)
		if err != nil {
			return err
		}
		l.FontSize = *size
	}
	if !s.c.Store().UpdateEdgeLabel(args[0], l) {
		return fmt.Errorf("%w: %s", document.ErrUnknownEdge, args[0])
	}
	return nil
}

func cmdUnlabel(s *Shell, args []string) error {
	if len(args) != 1 {
		return usageErr("unlabel")
	}
	if !s.c.Store().UpdateEdgeLabel(args[0], nil) {
		return fmt.Errorf("%w: %s", document.ErrUnknownEdge, args[0])
	}
	return nil
}

func cmdTitle(s *Shell, args []string) error {
	if len(args) == 0 {
		s.printf("%s\n", s.c.Store().Title())
		return nil
	}
	s.c.Store().SetTitle(strings.Join(args, " "))
	return nil
}

func cmdSave(s *Shell, _ []string) error {
	if s.opts.Save == nil {
		return errors.New("no document file to save to")
	}
	if err := s.opts.Save(s.c.Store().Document()); err != nil {
		return err
	}
	s.printf("%s\n", s.ok("saved"))
	return nil
}

func cmdExport(s *Shell, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageErr("export")
	}
	if s.opts.Export == nil {
		return errors.New("export is not available")
	}
	path := ""
	if len(args) == 2 {
		path = args[1]
	}
	out, err := s.opts.Export(s.c.Store().Document(), args[0], path)
	if err != nil {
		return err
	}
	s.printf("%s %s\n", s.ok("wrote"), out)
	return nil
}

func cmdExit(*Shell, []string) error { return ErrExit }
