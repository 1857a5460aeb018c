// Package assets provides the stylesheets and page templates used to build
// preview pages.
//
// # Loader Architecture
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from a custom directory on disk
//	    └── Resolver          - combines both with custom-first fallback
//
// Resolver tries the custom FilesystemLoader first and falls back to the
// embedded assets when a name is not found there, so a directory may
// override a single stylesheet while keeping the rest.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css      # e.g. preview.css
//	└── templates/
//	    └── {name}.html     # e.g. page.html
//
// # Security
//
// Asset names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
