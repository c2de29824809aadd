package testutils

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ScriptedPrompter answers prompts from a fixed list, in order.
// An empty answer to Input or Select takes the default.
type ScriptedPrompter struct {
	answers []string
	asked   []string
	mu      sync.Mutex
}

func NewScriptedPrompter(answers ...string) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

func (s *ScriptedPrompter) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.asked)
}

func (s *ScriptedPrompter) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

func (s *ScriptedPrompter) next(label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, label)
	if len(s.answers) == 0 {
		return "", fmt.Errorf("no scripted answer left for %q", label)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *ScriptedPrompter) Input(label string, def string) (string, error) {
	a, err := s.next(label)
	if err != nil {
		return "", err
	}
	if a == "" {
		return def, nil
	}
	return a, nil
}

func (s *ScriptedPrompter) Password(label string) (string, error) {
	return s.next(label)
}

func (s *ScriptedPrompter) Confirm(label string) (bool, error) {
	a, err := s.next(label)
	if err != nil {
		return false, err
	}
	a = strings.ToLower(a)
	return a == "y" || a == "yes", nil
}

func (s *ScriptedPrompter) Select(label string, items []string, def string) (string, error) {
	a, err := s.next(label)
	if err != nil {
		return "", err
	}
	if a == "" {
		a = def
	}
	if !slices.Contains(items, a) {
		return "", fmt.Errorf("%q is not one of the choices for %q: %v", a, label, items)
	}
	return a, nil
}
