// Package highlight colors YAML for display in a terminal.
package highlight

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

const DefaultStyle = "monokai"

// Highlighter renders YAML with ANSI colors.
type Highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// Option configures a [Highlighter].
type Option func(*Highlighter)

// WithStyle sets the chroma style. Unknown names use chroma's fallback style.
func WithStyle(name string) Option {
	return func(h *Highlighter) {
		h.style = styles.Get(name)
	}
}

// New creates a [Highlighter] for the given color profile. Profiles without
// color support leave content unchanged.
func New(profile termenv.Profile, opts ...Option) *Highlighter {
	formatterName := "noop"
	switch profile {
	case termenv.TrueColor:
		formatterName = "terminal16m"

	case termenv.ANSI256:
		formatterName = "terminal256"

	case termenv.ANSI:
		formatterName = "terminal8"

	case termenv.Ascii:
	}

	h := &Highlighter{
		lexer:     chroma.Coalesce(lexers.Get("YAML")),
		formatter: formatters.Get(formatterName),
		style:     styles.Get(DefaultStyle),
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Highlight returns src with syntax highlighting applied.
func (h *Highlighter) Highlight(src []byte) ([]byte, error) {
	iterator, err := h.lexer.Tokenise(nil, string(src))
	if err != nil {
		return nil, fmt.Errorf("lexer tokenize: %w", err)
	}

	buf := &bytes.Buffer{}

	err = h.formatter.Format(buf, h.style, iterator)
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}

	return buf.Bytes(), nil
}
