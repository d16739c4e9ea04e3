package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveAttachment records attachment metadata. The binary itself lives on
// disk under the data directory (see internal/attach).
func (s *Store) SaveAttachment(a Attachment) error {
	_, err := s.db.Exec(`
		INSERT INTO attachments (id, kind, filename, content_type, size, sha256, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Kind, a.Filename, a.ContentType, a.Size, a.SHA256, a.Text,
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetAttachment fetches attachment metadata by ID.
func (s *Store) GetAttachment(id string) (Attachment, error) {
	var a Attachment
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, kind, filename, content_type, size, sha256, text, created_at
		FROM attachments WHERE id = ?`, id,
	).Scan(&a.ID, &a.Kind, &a.Filename, &a.ContentType, &a.Size, &a.SHA256, &a.Text, &createdAt)
	if err == sql.ErrNoRows {
		return Attachment{}, ErrNotFound
	}
	if err != nil {
		return Attachment{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Attachment{}, fmt.Errorf("parsing created_at: %w", err)
	}
	a.CreatedAt = t
	return a, nil
}

// UpdateAttachmentText stores the extracted drawing text for search.
func (s *Store) UpdateAttachmentText(id, text string) error {
	res, err := s.db.Exec(`UPDATE attachments SET text = ? WHERE id = ?`, text, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAttachment removes attachment metadata by ID.
func (s *Store) DeleteAttachment(id string) error {
	res, err := s.db.Exec(`DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachmentInUse reports whether any profile drawing or tool photo still
// references the attachment.
func (s *Store) AttachmentInUse(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM profiles WHERE drawing_id = ?)
		     + (SELECT COUNT(*) FROM tools WHERE photo_id = ?)`, id, id,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SearchDrawings returns profiles whose drawing text contains the query,
// case-insensitively, ordered by profile name.
func (s *Store) SearchDrawings(query string) ([]Profile, error) {
	rows, err := s.db.Query(`
		SELECT `+prefixedProfileColumns("p")+`
		FROM profiles p JOIN attachments att ON p.drawing_id = att.id
		WHERE att.kind = 'drawing' AND att.text LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY p.name, p.id`, query,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func prefixedProfileColumns(alias string) string {
	return alias + ".id, " + alias + ".name, " + alias + ".description, " +
		alias + ".feed_rate, " + alias + ".material_id, " + alias + ".drawing_id, " + alias + ".created_at"
}
