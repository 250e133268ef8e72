// Package printing renders business documents to HTML with html/template
// and converts them to PDF through headless Chrome.
package printing
