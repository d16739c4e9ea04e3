package storage

import (
	"database/sql"
	"fmt"
)

const toolColumns = "id, profile_id, position, tool_type, set_number, code, knives_count, status, notes, photo_id"

func scanTool(row interface{ Scan(...any) error }) (Tool, error) {
	var t Tool
	err := row.Scan(&t.ID, &t.ProfileID, &t.Position, &t.Type, &t.SetNumber,
		&t.Code, &t.KnivesCount, &t.Status, &t.Notes, &t.PhotoID)
	if err == sql.ErrNoRows {
		return Tool{}, ErrNotFound
	}
	return t, err
}

// CreateTool inserts a tool and returns its generated ID. The code column
// is UNIQUE; a collision surfaces as ErrDuplicate.
func (s *Store) CreateTool(t Tool) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO tools (profile_id, position, tool_type, set_number, code, knives_count, status, notes, photo_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ProfileID, t.Position, t.Type, t.SetNumber, t.Code, t.KnivesCount, t.Status, t.Notes, t.PhotoID,
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("tool code %s: %w", t.Code, ErrDuplicate)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTool fetches a tool by ID.
func (s *Store) GetTool(id int64) (Tool, error) {
	row := s.db.QueryRow(`SELECT `+toolColumns+` FROM tools WHERE id = ?`, id)
	return scanTool(row)
}

// GetToolByCode fetches a tool by its generated code.
func (s *Store) GetToolByCode(code string) (Tool, error) {
	row := s.db.QueryRow(`SELECT `+toolColumns+` FROM tools WHERE code = ?`, code)
	return scanTool(row)
}

func (s *Store) queryTools(query string, args ...any) ([]Tool, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

// ListToolsByProfile returns all tools linked to a profile, ordered by code.
func (s *Store) ListToolsByProfile(profileID int64) ([]Tool, error) {
	return s.queryTools(`SELECT `+toolColumns+` FROM tools WHERE profile_id = ? ORDER BY code, id`, profileID)
}

// ListToolsInSet returns the tools sharing a set prefix (first five code
// digits), ordered by set number.
func (s *Store) ListToolsInSet(setPrefix string) ([]Tool, error) {
	return s.queryTools(`SELECT `+toolColumns+` FROM tools WHERE code LIKE ? ORDER BY code`, setPrefix+"_")
}

// UpdateTool rewrites the mutable fields of a tool.
func (s *Store) UpdateTool(t Tool) error {
	res, err := s.db.Exec(`
		UPDATE tools SET profile_id = ?, position = ?, tool_type = ?, set_number = ?,
			code = ?, knives_count = ?, status = ?, notes = ?, photo_id = ?
		WHERE id = ?`,
		t.ProfileID, t.Position, t.Type, t.SetNumber, t.Code, t.KnivesCount, t.Status, t.Notes, t.PhotoID, t.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("tool code %s: %w", t.Code, ErrDuplicate)
	}
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

// SetToolStatus updates only the status column.
func (s *Store) SetToolStatus(id int64, status string) error {
	res, err := s.db.Exec(`UPDATE tools SET status = ? WHERE id = ?`, status, id)
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

// DeleteTool removes a tool by ID.
func (s *Store) DeleteTool(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tools WHERE id = ?`, id)
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

// IsToolAssigned reports whether the tool is mounted on any head.
func (s *Store) IsToolAssigned(id int64) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM assignments WHERE tool_id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
