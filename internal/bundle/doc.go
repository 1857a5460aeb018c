// Package bundle reads and writes .mdz bundles.
//
// A bundle is a tar stream compressed with zstd. Its entries are:
//
//	index.md        the main Markdown document, stored verbatim
//	metadata.yaml   document metadata as a YAML mapping (optional)
//	assets/<path>   referenced files, keyed by slash-separated relative path
//
// The document references its assets as "assets/<path>", so an extracted
// bundle can be opened in place. Older bundles that stored files at the
// archive root decode them into Bundle.Extra and extract them under their
// original name. Entries are written in that order with
// assets sorted by path, and with fixed timestamps, so equal bundles
// encode to equal bytes.
package bundle
