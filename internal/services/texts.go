package services

import "math/rand"

// Fixed corpus assigned to multiplayer games at start.
var typingTexts = []string{
	"The quick brown fox jumps over the lazy dog.",
	"To be or not to be, that is the question.",
	"All that glitters is not gold.",
	"A journey of a thousand miles begins with a single step.",
	"Coding is not just about logic, it is about art and structure.",
}

// PickText returns one pseudo-randomly selected text from the corpus.
func PickText() string {
	return typingTexts[rand.Intn(len(typingTexts))]
}
