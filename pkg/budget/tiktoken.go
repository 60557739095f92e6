package budget

import (
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// NewTikTokenEstimator returns a TokenEstimator backed by tiktoken-go for the
// given model ("gpt-4", "gpt-4o", ...). Unknown models fail here, not at
// estimation time.
func NewTikTokenEstimator(model string) (TokenEstimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}
