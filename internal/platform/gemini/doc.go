// Package gemini adapts Google's Gemini API to the generation.Generator
// boundary interface.
package gemini
