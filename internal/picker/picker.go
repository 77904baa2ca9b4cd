// Package picker abstracts the folder chooser used to locate a vault.
package picker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Picker asks the user for a directory. ok is false when the user cancelled.
type Picker interface {
	SelectDirectory(ctx context.Context, title string) (path string, ok bool, err error)
}

// Func adapts a function to Picker.
type Func func(ctx context.Context, title string) (string, bool, error)

// SelectDirectory calls f.
func (f Func) SelectDirectory(ctx context.Context, title string) (string, bool, error) {
	return f(ctx, title)
}

// Static always returns the same answer. An empty path reports a cancelled pick.
type Static string

// SelectDirectory returns s.
func (s Static) SelectDirectory(context.Context, string) (string, bool, error) {
	return string(s), s != "", nil
}

// Prompt reads one line from In after writing the title to Out.
// An empty line or EOF means cancelled.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

// SelectDirectory prompts for a path.
func (p Prompt) SelectDirectory(ctx context.Context, title string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if p.Out != nil {
		if _, err := fmt.Fprintf(p.Out, "%s: ", title); err != nil {
			return "", false, err
		}
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, fmt.Errorf("picker: read: %w", err)
	}
	path := strings.TrimSpace(line)
	return path, path != "", nil
}
