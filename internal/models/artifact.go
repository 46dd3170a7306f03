package models

type ConvertedArtifact struct {
	SourcePath string `json:"source_path"`
	OutputPath string `json:"output_path"`
	Size       int64  `json:"size"`
	Format     string `json:"format"`
}

type UploadAck struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ETag      string `json:"etag,omitempty"`
	VersionID string `json:"version_id,omitempty"`
	Location  string `json:"location,omitempty"`
}

const (
	FormatWebP = "webp"
)
