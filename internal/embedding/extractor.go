// Recshelf - Document Recommendation Pipeline and Task Dispatcher
// Copyright 2026 Recshelf Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recshelf/recshelf

package embedding

import (
	"context"
	"fmt"
	"strings"
)

// TextSource yields the source text used to derive a document's features.
// An empty string means the document has no usable text.
type TextSource interface {
	Text(ctx context.Context, documentID int) (string, error)
}

// DocumentText is the raw material the metadata extractor works from.
type DocumentText struct {
	Title      string
	Categories []string
	Summary    string
	Content    string
}

// DocumentReader loads the text fields for a document. Implemented by the
// database layer.
type DocumentReader interface {
	DocumentText(ctx context.Context, documentID int) (DocumentText, error)
}

// MetadataSource is a TextSource over stored document metadata: title,
// categories, summary, and extracted file content when present.
type MetadataSource struct {
	reader DocumentReader
}

// NewMetadataSource creates a metadata-backed text source.
func NewMetadataSource(reader DocumentReader) *MetadataSource {
	return &MetadataSource{reader: reader}
}

// Text concatenates the document's text fields into one feature string.
func (m *MetadataSource) Text(ctx context.Context, documentID int) (string, error) {
	dt, err := m.reader.DocumentText(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("load document text: %w", err)
	}

	parts := make([]string, 0, 4)
	for _, p := range []string{dt.Title, strings.Join(dt.Categories, " "), dt.Summary, dt.Content} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " "), nil
}
