// Package pipeline assembles preview pages.
//
// A preview is built in these stages:
//   - line endings are normalized
//   - registered processors detect their spans and render preview fragments,
//     which are stashed behind private-use tokens
//   - ==highlight== syntax becomes placeholder marks
//   - the remaining Markdown is converted to HTML by goldmark
//   - tokens are restored, marks become <mark> tags, relative references are
//     rewritten to file:// URLs
//   - the body is wrapped in the page template with the stylesheet and the
//     processors' scripts and styles in <head>
//
// Goldmark runs without WithUnsafe: raw HTML in the document is escaped,
// while processor fragments reach the page through the token stash.
package pipeline
