package retrieval

import (
	"fmt"
	"strings"
)

// Formatting defaults sized for a flash-class context window.
const (
	DefaultMaxDocs       = 4
	DefaultMaxDocChars   = 2000
	DefaultMaxTotalChars = 12000
)

// FormatterOptions bound the snippet text produced from retrieved documents.
type FormatterOptions struct {
	// MaxDocs caps how many documents are rendered.
	MaxDocs int
	// MaxDocChars truncates each document's content.
	MaxDocChars int
	// MaxTotalChars stops rendering once the combined output would exceed it.
	MaxTotalChars int
}

// Formatter renders retrieved documents into the observation text handed to
// the model: numbered blocks with source attribution, truncated per document
// and bounded globally.
type Formatter struct {
	opts FormatterOptions
}

// NewFormatter creates a Formatter with bounded defaults.
func NewFormatter(optFns ...func(o *FormatterOptions)) *Formatter {
	opts := FormatterOptions{
		MaxDocs:       DefaultMaxDocs,
		MaxDocChars:   DefaultMaxDocChars,
		MaxTotalChars: DefaultMaxTotalChars,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Formatter{opts: opts}
}

// Format renders documents as "[N] SOURCE: <source>\n<content>" blocks joined
// by blank lines. Rendering stops at MaxDocs documents or once the running
// total would exceed MaxTotalChars. No documents at all yields EmptyResult.
func (f *Formatter) Format(docs []Document) string {
	if len(docs) == 0 {
		return EmptyResult
	}

	var blocks []string
	total := 0

	for i, doc := range docs {
		if i >= f.opts.MaxDocs {
			break
		}

		content := doc.Content
		if len(content) > f.opts.MaxDocChars {
			content = content[:f.opts.MaxDocChars]
		}

		source := doc.Source
		if source == "" {
			source = "unknown"
		}

		block := fmt.Sprintf("[%d] SOURCE: %s\n%s", i+1, source, content)
		if total+len(block) > f.opts.MaxTotalChars {
			break
		}

		blocks = append(blocks, block)
		total += len(block)
	}

	return strings.Join(blocks, "\n\n")
}
