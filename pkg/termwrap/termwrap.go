// Package termwrap wraps text to the width of the controlling terminal.
package termwrap

import (
	"os"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"
)

type TermWrap struct {
	width  int
	height int
}

// NewTermWrap sizes the wrapper from standard output, falling back to the
// defaults when it is not a terminal.
func NewTermWrap(defaultWidth, defaultHeight int) *TermWrap {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return &TermWrap{width: defaultWidth, height: defaultHeight}
	}

	return &TermWrap{width: width, height: height}
}

// Fixed wraps at width regardless of any terminal.
func Fixed(width int) *TermWrap {
	return &TermWrap{width: width}
}

func (tw *TermWrap) Width() int {
	return tw.width
}

func (tw *TermWrap) Paragraph(content string) string {
	return wordwrap.WrapString(content, uint(tw.width))
}

// IndentedParagraph wraps content so that each line, once prefixed, still
// fits. Terminals narrower than minimumWidth get no indentation.
func (tw *TermWrap) IndentedParagraph(prefix, content string, minimumWidth int) string {
	if tw.width <= minimumWidth {
		return tw.Paragraph(content)
	}

	lines := strings.Split(wordwrap.WrapString(content, uint(tw.width-len(prefix))), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}

	return strings.Join(lines, "\n")
}
