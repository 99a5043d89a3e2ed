package trim

import (
	"github.com/tiktoken-go/tokenizer"

	"github.com/hupe1980/docent/core"
)

// CharSizer measures history entries by the length of their textual payload:
// text parts and tool observations count, function call arguments do not.
type CharSizer struct{}

// Size returns the character count of the entry's text payload.
func (CharSizer) Size(c core.Content) int {
	size := 0
	for _, p := range c.Parts {
		switch part := p.(type) {
		case core.TextPart:
			size += len(part.Text)
		case core.FunctionResponsePart:
			size += len(part.FunctionResponse.Response)
			size += len(part.FunctionResponse.Error)
		}
	}
	return size
}

// TokenSizer measures history entries in model tokens using the GPT-4
// encoding as an approximation across providers. When the codec is
// unavailable it estimates four characters per token.
type TokenSizer struct {
	codec tokenizer.Codec
}

// NewTokenSizer creates a TokenSizer. Codec construction failures are not
// fatal: the sizer degrades to the character estimate.
func NewTokenSizer() *TokenSizer {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return &TokenSizer{}
	}
	return &TokenSizer{codec: codec}
}

// Size returns the token count of the entry's text payload.
func (s *TokenSizer) Size(c core.Content) int {
	size := 0
	for _, p := range c.Parts {
		switch part := p.(type) {
		case core.TextPart:
			size += s.count(part.Text)
		case core.FunctionResponsePart:
			size += s.count(part.FunctionResponse.Response)
			size += s.count(part.FunctionResponse.Error)
		}
	}
	return size
}

func (s *TokenSizer) count(text string) int {
	if s.codec == nil {
		return len(text) / 4
	}
	count, err := s.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
