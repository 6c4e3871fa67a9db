// Package report renders extraction and detection results for humans
// and tools.
//
// Three formats are provided: plain text for terminal display, JSON for
// programmatic consumers, and Markdown for documentation and sharing.
// All writers implement the same Writer interface, so command code picks
// a format without caring about the rendering details, and MultiWriter
// fans one result out to several destinations at once.
package report
