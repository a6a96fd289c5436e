package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document is one stored document.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
}

// LoadAllDocuments returns every stored document, ordered by collection and
// id.
func (s *Store) LoadAllDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, doc_id, data FROM documents
		ORDER BY collection ASC, doc_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var raw string
		if err := rows.Scan(&doc.Collection, &doc.ID, &raw); err != nil {
			return nil, fmt.Errorf("load documents: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &doc.Data); err != nil {
			return nil, fmt.Errorf("load documents: %s/%s: %w", doc.Collection, doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return docs, nil
}

// PutDocument inserts or replaces a document.
func (s *Store) PutDocument(ctx context.Context, collection, id string, data map[string]any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, doc_id, data) VALUES (?, ?, ?)
		ON CONFLICT(collection, doc_id) DO UPDATE SET data = excluded.data
	`, collection, id, string(b))
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// DeleteDocument removes a document. Returns true if it existed.
func (s *Store) DeleteDocument(ctx context.Context, collection, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND doc_id = ?",
		collection, id,
	)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document: rows affected: %w", err)
	}
	return n > 0, nil
}
