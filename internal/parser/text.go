package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/skelgen/internal/vnode"
)

// TextParser handles plain text files. Each paragraph becomes a <p>.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*vnode.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	children := make([]*vnode.Node, 0, len(paragraphs))
	for _, para := range paragraphs {
		children = append(children, textElement("p", para))
	}
	return vnode.Fragment(children...), nil
}
