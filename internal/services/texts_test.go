package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPickText_ReturnsCorpusMember(t *testing.T) {
	req := require.New(t)

	corpus := make(map[string]bool, len(typingTexts))
	for _, text := range typingTexts {
		corpus[text] = true
	}

	for i := 0; i < 50; i++ {
		req.True(corpus[PickText()])
	}
}
