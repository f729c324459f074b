// Package connectors provides content source implementations. Each
// connector knows how to list and download documents from one source
// type (local filesystem, SharePoint) and presents them to the
// pipeline as uniform source items.
package connectors
