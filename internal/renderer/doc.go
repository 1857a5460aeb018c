// Package renderer runs external diagram compilers such as mmdc and
// PlantUML.
//
// A Resolver locates each Tool once and caches the result, including
// negative results, for its lifetime. An Adapter turns source text into
// the tool's output through uniquely named temporary files that are
// removed on every path, under an explicit timeout. Callers treat every
// error as a reason to fall back, never as fatal.
package renderer
