package models

// SourceItem is one image file discovered under the source root.
type SourceItem struct {
	Path string `json:"path"`
	Root string `json:"root"`
	Ext  string `json:"ext"`
}
