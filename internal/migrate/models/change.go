package models

// ChangeType classifies what happened to one destination file.
type ChangeType string

const (
	ChangeCreated   ChangeType = "created"
	ChangeConverted ChangeType = "converted"
	ChangeCopied    ChangeType = "copied"
	ChangeSkipped   ChangeType = "skipped"
)

// ChangeTypes lists every change type in report order.
var ChangeTypes = []ChangeType{ChangeCreated, ChangeConverted, ChangeCopied, ChangeSkipped}

// Change records one file touched by a migration. FilePath is slash-separated
// and relative to the destination root; Source, when the change migrates a
// source file, is relative to the source root.
type Change struct {
	FilePath    string     `json:"file_path"`
	Type        ChangeType `json:"type"`
	Description string     `json:"description"`
	Source      string     `json:"source,omitempty"`
	Stage       StageName  `json:"stage,omitempty"`
	// Fingerprint is the content fingerprint of converted Markdown.
	Fingerprint string `json:"fingerprint,omitempty"`
}
