// Package plugin discovers processors outside the binary.
//
// Each configured directory is listed once, non-recursively, in lexical
// order. Names beginning with "_" or "." are ignored. Two kinds of file
// are understood:
//
//   - Go plugins (*.so) built with -buildmode=plugin. The plugin must
//     export a Register symbol of type func(*processor.Registry) error.
//
//   - Manifests (*.yaml, *.yml) declaring a diagram dialect rendered by an
//     external command, for example:
//
//     id: d2
//     priority: 80
//     fence: [d2]
//     label: D2 Diagram
//     command: d2
//     args: ["{input}", "{output}"]
//     input_ext: d2
//     output_ext: svg
//     timeout: 20s
//
// Loading is best effort: a file that fails is logged and recorded in the
// Report, and discovery continues.
package plugin
