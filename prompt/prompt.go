// Package prompt asks the operator for the values the command line did not carry.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
)

// Quit is the list entry that ends an interactive selection loop.
const Quit = "-QUIT-"

type Prompter interface {
	Input(label string, def string) (string, error)
	Password(label string) (string, error)
	Confirm(label string) (bool, error)
	Select(label string, items []string, def string) (string, error)
}

type terminal struct {
	stdin  io.ReadCloser
	stdout io.WriteCloser
	size   int
}

func NewTerminal() Prompter {
	return &terminal{stdin: os.Stdin, stdout: os.Stdout, size: 20}
}

func (t *terminal) Input(label string, def string) (string, error) {
	p := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
		Stdin:     t.stdin,
		Stdout:    t.stdout,
	}
	return p.Run()
}

func (t *terminal) Password(label string) (string, error) {
	p := promptui.Prompt{
		Label:  label,
		Mask:   '*',
		Stdin:  t.stdin,
		Stdout: t.stdout,
		Validate: func(s string) error {
			if s == "" {
				return errors.New("a value is required")
			}
			return nil
		},
	}
	return p.Run()
}

func (t *terminal) Confirm(label string) (bool, error) {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     t.stdin,
		Stdout:    t.stdout,
	}
	_, err := p.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *terminal) Select(label string, items []string, def string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("nothing to select for %s", label)
	}
	pos := 0
	for i, item := range items {
		if item == def {
			pos = i
			break
		}
	}
	s := promptui.Select{
		Label:     label,
		Items:     items,
		Size:      t.size,
		CursorPos: pos,
		Stdin:     t.stdin,
		Stdout:    t.stdout,
	}
	_, result, err := s.Run()
	return result, err
}

// PasswordIfMissing asks for a hidden value only when current is empty.
func PasswordIfMissing(p Prompter, current string, label string) (string, error) {
	if current != "" {
		return current, nil
	}
	return p.Password(label)
}
