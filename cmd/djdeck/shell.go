package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	deck "github.com/tphakala/go-dj-deck"
	"github.com/tphakala/go-dj-deck/internal/playlist"
)

var errQuit = errors.New("quit")

// shell executes text commands against the decks and the library.
type shell struct {
	decks    map[string]*deck.Player
	controls *deck.Controls
	library  *playlist.Library
	probe    playlist.ProbeFunc
	clipped  func() uint64 // clamped output blocks, nil when unmetered
	out      io.Writer
}

const helpText = `commands:
  list                     show the library
  import <path>...         add files to the library
  find <text>              first library entry whose title contains text
  remove <index>           drop a library entry
  <deck> load <index|path> load a library entry or a file
  <deck> play|pause|stop|rewind|forward
  <deck> gain|speed|position|lpf|hpf|room|damping|wet|dry <value>
  <deck> status
  xy <deck> reverb|mix <x> <y>
  clips                    count output blocks clamped at full scale
  help | quit
decks: a, b`

func (s *shell) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "list":
		s.list()
		return nil
	case "import":
		return s.importPaths(fields[1:])
	case "find":
		if len(fields) < 2 {
			return errors.New("usage: find <text>")
		}
		fmt.Fprintln(s.out, s.library.Find(strings.Join(fields[1:], " ")))
		return nil
	case "remove":
		if len(fields) != 2 {
			return errors.New("usage: remove <index>")
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("bad index %q", fields[1])
		}
		return s.library.Remove(i)
	case "xy":
		return s.xy(fields[1:])
	case "clips":
		if s.clipped == nil {
			return errors.New("no output meter")
		}
		fmt.Fprintf(s.out, "clipped blocks: %d\n", s.clipped())
		return nil
	}

	p, ok := s.decks[fields[0]]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return s.deckCommand(fields[0], p, fields[1:])
}

func (s *shell) list() {
	for i, t := range s.library.Tracks() {
		fmt.Fprintf(s.out, "%3d  %-40s %6s\n", i, t.Title, t.Length)
	}
}

func (s *shell) importPaths(paths []string) error {
	if len(paths) == 0 {
		return errors.New("usage: import <path>...")
	}
	added, err := s.library.Import(paths, s.probe)
	for _, t := range added {
		fmt.Fprintf(s.out, "added %s (%s)\n", t.Title, t.Length)
	}
	return err
}

func (s *shell) deckCommand(name string, p *deck.Player, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s <command>", name)
	}

	cmd := args[0]
	switch cmd {
	case "load":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s load <index|path>", name)
		}
		return p.Load(s.resolve(args[1]))
	case "status":
		fmt.Fprintf(s.out, "%s: %s pos %.3f (%.1fs of %.1fs) gain %.2f speed %.2f lpf %.0f hpf %.0f\n",
			name, p.State(), p.PositionRelative(), p.PositionSeconds(), p.LengthInSeconds(),
			p.Gain(), p.Speed(), p.LowPassFrequency(), p.HighPassFrequency())
		return nil
	}

	id := name + "." + cmd
	if len(args) == 1 {
		return s.controls.Dispatch(deck.Event{Control: id, Kind: deck.EventPress})
	}

	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad value %q", args[1])
	}
	return s.controls.Dispatch(deck.Event{Control: id, Kind: deck.EventValue, Value: v})
}

func (s *shell) xy(args []string) error {
	if len(args) != 4 {
		return errors.New("usage: xy <deck> reverb|mix <x> <y>")
	}
	x, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("bad x %q", args[2])
	}
	y, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("bad y %q", args[3])
	}
	return s.controls.Dispatch(deck.Event{
		Control: args[0] + "." + args[1],
		Kind:    deck.EventPoint,
		X:       x,
		Y:       y,
	})
}

// resolve maps a library index to its path; anything else is a path.
func (s *shell) resolve(arg string) string {
	if i, err := strconv.Atoi(arg); err == nil {
		if t, err := s.library.Track(i); err == nil {
			return t.Path
		}
	}
	return arg
}
