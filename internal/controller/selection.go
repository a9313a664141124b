package controller

import (
	"fmt"
	"strings"
)

type UnknownLanguageError struct {
	Value   string
	Options []string
}

func (e *UnknownLanguageError) Error() string {
	return fmt.Sprintf("unknown language %q (available: %s)", e.Value, strings.Join(e.Options, ", "))
}

// Selection is an ordered option list with one selected entry. Until
// something is chosen explicitly the first option counts as selected.
type Selection struct {
	options  []string
	selected string
	explicit bool
}

func (s *Selection) Append(option string) {
	s.options = append(s.options, option)
}

func (s *Selection) Options() []string {
	out := make([]string, len(s.options))
	copy(out, s.options)
	return out
}

func (s *Selection) Value() string {
	if s.explicit {
		return s.selected
	}
	if len(s.options) == 0 {
		return ""
	}
	return s.options[0]
}

// Select picks value, preferring an exact match over a case-insensitive one.
// An empty selection accepts any value.
func (s *Selection) Select(value string) error {
	value = strings.TrimSpace(value)
	if len(s.options) == 0 {
		s.selected, s.explicit = value, true
		return nil
	}

	for _, option := range s.options {
		if option == value {
			s.selected, s.explicit = option, true
			return nil
		}
	}
	for _, option := range s.options {
		if strings.EqualFold(option, value) {
			s.selected, s.explicit = option, true
			return nil
		}
	}

	return &UnknownLanguageError{Value: value, Options: s.Options()}
}
