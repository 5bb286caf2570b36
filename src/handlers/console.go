package handlers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/username/weeklygiving/src/services"
)

// Console is the terminal the user talks to. Input lines are read on a background
// goroutine so the session can wait on input and settings reloads at the same time.
type Console struct {
	mu    sync.Mutex // serializes output
	out   io.Writer
	lines chan string
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{out: out, lines: make(chan string)}
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
		close(c.lines)
	}()
	return c
}

// Lines delivers input lines; it is closed at end of input.
func (c *Console) Lines() <-chan string {
	return c.lines
}

// Write lets the console be used as an io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}

func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) Println(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, args...)
}

// Ask prints question and waits for one line. ok is false at end of input.
func (c *Console) Ask(question string) (answer string, ok bool) {
	c.Printf("%s ", question)
	line, ok := <-c.lines
	return strings.TrimSpace(line), ok
}

// Confirm asks a yes/no question. End of input counts as no.
func (c *Console) Confirm(question string) bool {
	for {
		answer, ok := c.Ask(question + " [y/n]")
		if !ok {
			return false
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

// ConfirmUnsaved implements services.Prompt. End of input cancels.
func (c *Console) ConfirmUnsaved(message string) services.Choice {
	for {
		answer, ok := c.Ask(message + " [s]ave / [d]iscard / [c]ancel:")
		if !ok {
			return services.ChoiceCancel
		}
		switch strings.ToLower(answer) {
		case "s", "save":
			return services.ChoiceSave
		case "d", "discard":
			return services.ChoiceDiscard
		case "c", "cancel":
			return services.ChoiceCancel
		}
	}
}

// ResolveMissingDatabase implements services.DatabaseResolver.
func (c *Console) ResolveMissingDatabase(expectedPath string) (services.ResolveAction, string) {
	c.Printf("No database was found at %s.\n", expectedPath)
	for {
		answer, ok := c.Ask("[l]ocate an existing database, [c]reate a new one, or [q]uit:")
		if !ok {
			return services.ResolveQuit, ""
		}
		switch strings.ToLower(answer) {
		case "l", "locate":
			path, ok := c.Ask("Path to the existing database file:")
			if !ok {
				return services.ResolveQuit, ""
			}
			if _, err := os.Stat(path); err != nil {
				c.Printf("Cannot use %s: %v\n", path, err)
				continue
			}
			return services.ResolveLocate, path
		case "c", "create":
			path, ok := c.Ask(fmt.Sprintf("Where should it be created? (empty for %s)", expectedPath))
			if !ok {
				return services.ResolveQuit, ""
			}
			return services.ResolveCreate, path
		case "q", "quit":
			return services.ResolveQuit, ""
		}
	}
}
