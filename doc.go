// Package mdz renders Markdown documents that embed math, diagrams, CSV
// tables, images, media and chart specifications, and packs them into
// single-file bundles.
//
// # Quick Start
//
// Create an engine and render a preview page:
//
//	eng, err := mdz.NewEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	page, err := eng.Preview(ctx, mdz.Document{
//	    Text:    "# Hello\n\n$$E = mc^2$$",
//	    BaseDir: "/path/to/markdown", // for relative image paths
//	})
//
// Export returns Markdown adapted to a static format backend:
//
//	md := eng.Export(mdz.Document{Text: content}, processor.FormatDOCX)
//
// # Processors
//
// Every embedded syntax is handled by a processor registered with a
// priority. The built-in processors are:
//
//	id             priority  syntax
//	mermaid        10        ```mermaid
//	math           20        $...$, $$...$$
//	image          30        ![alt](src), <img>, <svg>
//	csv            45        ```csv, ```tsv
//	media          50        <video>, <audio>, <iframe>
//	visualization  60        ```plotly, ```chartjs
//	plantuml       70        ```plantuml, ```puml
//
// Additional processors are loaded from plugin directories: Go plugins
// exporting Register, or YAML manifests describing an external diagram
// command. See WithPluginDirs.
//
// # Bundles
//
// Pack writes a document and the local images it references into one
// zstd-compressed tar archive; Unpack restores it:
//
//	res, err := eng.Pack(mdz.Document{Text: content, BaseDir: dir}, "report.mdz")
//	doc, err := eng.Unpack("report.mdz", "out/", true)
//
// # External Tools
//
// Diagrams are rendered by mermaid-cli (mmdc) and PlantUML when they are
// installed. Missing tools never fail a render: previews fall back to a
// live widget or highlighted source, exports to a labeled placeholder.
// Engine.Tools reports what was found.
package mdz
