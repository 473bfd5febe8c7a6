// Package generation defines the boundary between the application core and
// external LLM services used to produce course content.
package generation
