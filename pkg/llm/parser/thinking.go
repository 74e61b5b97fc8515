// Package parser cleans raw model output before it is decoded.
package parser

import (
	"strings"
)

const (
	thinkingOpen  = "<thinking>"
	thinkingClose = "</thinking>"
)

// ThinkingParser separates <thinking> sections from message text. It keeps
// state across Parse calls so tags split between chunks are still
// recognized.
type ThinkingParser struct {
	thinking   strings.Builder
	message    strings.Builder
	tagBuffer  strings.Builder
	inThinking bool
	inTag      bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse consumes a chunk of model output.
func (p *ThinkingParser) Parse(content string) {
	for _, ch := range content {
		switch {
		case ch == '<':
			if p.inTag {
				// The earlier '<' did not open a tag.
				p.emit(p.tagBuffer.String())
			}
			p.inTag = true
			p.tagBuffer.Reset()
			p.tagBuffer.WriteRune(ch)
		case ch == '>' && p.inTag:
			p.tagBuffer.WriteRune(ch)
			tag := p.tagBuffer.String()
			p.tagBuffer.Reset()
			p.inTag = false

			switch tag {
			case thinkingOpen:
				p.inThinking = true
			case thinkingClose:
				p.inThinking = false
			default:
				p.emit(tag)
			}
		case p.inTag:
			p.tagBuffer.WriteRune(ch)
		default:
			p.emitRune(ch)
		}
	}
}

func (p *ThinkingParser) emit(s string) {
	if p.inThinking {
		p.thinking.WriteString(s)
		return
	}
	p.message.WriteString(s)
}

func (p *ThinkingParser) emitRune(ch rune) {
	if p.inThinking {
		p.thinking.WriteRune(ch)
		return
	}
	p.message.WriteRune(ch)
}

// Flush emits any half-read tag as plain text and returns the accumulated
// thinking and message text.
func (p *ThinkingParser) Flush() (thinking, message string) {
	if p.inTag {
		p.emit(p.tagBuffer.String())
		p.tagBuffer.Reset()
		p.inTag = false
	}
	return p.thinking.String(), p.message.String()
}

// StripThinking returns text with every <thinking> section removed.
func StripThinking(text string) string {
	p := NewThinkingParser()
	p.Parse(text)
	_, message := p.Flush()
	return message
}
