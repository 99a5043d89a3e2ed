package indexer

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Chunking defaults matching the ingestion pipeline's contract.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// Chunk is one indexable piece of a markdown document.
type Chunk struct {
	ID      string
	Source  string // path relative to the docs root
	Section string // nearest enclosing heading, empty before the first one
	Content string
}

// ChunkerOptions configures chunk sizing.
type ChunkerOptions struct {
	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int
	// Overlap is how many bytes of context consecutive chunks share.
	Overlap int
}

// Chunker splits markdown documents into chunks. Documents are first divided
// at headings so a chunk never spans two sections, then oversized sections
// are split into windows of at most ChunkSize bytes with Overlap bytes
// carried between consecutive windows.
type Chunker struct {
	opts ChunkerOptions
}

// NewChunker creates a Chunker with the default sizing.
func NewChunker(optFns ...func(o *ChunkerOptions)) *Chunker {
	opts := ChunkerOptions{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Chunker{opts: opts}
}

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

type section struct {
	heading string
	lines   []string
}

// Chunk splits content into chunks attributed to source. Chunk IDs are
// deterministic for identical input.
func (c *Chunker) Chunk(source string, content []byte) []Chunk {
	var chunks []Chunk
	n := 0

	for _, sec := range splitSections(string(content)) {
		body := strings.Join(sec.lines, "\n")
		for _, window := range c.splitText(body) {
			text := strings.TrimSpace(window)
			if text == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				ID:      chunkID(source, n),
				Source:  source,
				Section: sec.heading,
				Content: text,
			})
			n++
		}
	}

	return chunks
}

// splitSections divides a markdown document at its headings. The heading
// line stays with its section so the chunk text carries the title. Text
// before the first heading forms a section with an empty heading.
func splitSections(content string) []section {
	var sections []section
	current := section{}

	for _, line := range strings.Split(content, "\n") {
		if m := headingPattern.FindStringSubmatch(line); len(m) > 2 {
			if len(current.lines) > 0 {
				sections = append(sections, current)
			}
			current = section{heading: m[2]}
		}
		current.lines = append(current.lines, line)
	}
	if len(current.lines) > 0 {
		sections = append(sections, current)
	}

	return sections
}

// splitText cuts text into windows of at most ChunkSize bytes, preferring
// paragraph breaks, then line breaks, then spaces as split points.
func (c *Chunker) splitText(text string) []string {
	if len(text) <= c.opts.ChunkSize {
		return []string{text}
	}

	var parts []string
	start := 0
	for start < len(text) {
		end := start + c.opts.ChunkSize
		if end >= len(text) {
			parts = append(parts, text[start:])
			break
		}

		cut := boundary(text[start:end])
		for cut > 1 && !utf8.RuneStart(text[start+cut]) {
			cut--
		}
		parts = append(parts, text[start:start+cut])

		next := start + cut - c.opts.Overlap
		if next <= start {
			next = start + cut
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}

	return parts
}

// boundary returns the preferred split point inside a window.
func boundary(window string) int {
	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return i
	}
	if i := strings.LastIndex(window, "\n"); i > 0 {
		return i
	}
	if i := strings.LastIndex(window, " "); i > 0 {
		return i
	}
	return len(window)
}

func chunkID(source string, n int) string {
	key := fmt.Sprintf("%s:%d", source, n)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
