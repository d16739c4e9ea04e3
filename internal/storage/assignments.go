package storage

import (
	"database/sql"
	"fmt"
)

// AssignToolToHead creates or replaces the assignment on a head slot.
// The old assignment (if any) is removed in the same transaction, so the
// UNIQUE(profile_id, head_number) constraint never fires on a replace.
func (s *Store) AssignToolToHead(a Assignment) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning assign transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM assignments WHERE profile_id = ? AND head_number = ?`,
		a.ProfileID, a.HeadNumber); err != nil {
		return 0, fmt.Errorf("clearing head %d: %w", a.HeadNumber, err)
	}

	res, err := tx.Exec(`
		INSERT INTO assignments (profile_id, tool_id, head_number, rpm, pass_depth, work_material, remarks)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ProfileID, a.ToolID, a.HeadNumber, a.RPM, a.PassDepth, a.WorkMaterial, a.Remarks,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing assignment: %w", err)
	}
	return id, nil
}

// GetAssignment fetches the assignment on a specific head of a profile.
func (s *Store) GetAssignment(profileID int64, headNumber int) (Assignment, error) {
	var a Assignment
	err := s.db.QueryRow(`
		SELECT a.id, a.profile_id, a.tool_id, a.head_number, a.rpm, a.pass_depth, a.work_material, a.remarks, t.code
		FROM assignments a JOIN tools t ON a.tool_id = t.id
		WHERE a.profile_id = ? AND a.head_number = ?`, profileID, headNumber,
	).Scan(&a.ID, &a.ProfileID, &a.ToolID, &a.HeadNumber, &a.RPM, &a.PassDepth, &a.WorkMaterial, &a.Remarks, &a.ToolCode)
	if err == sql.ErrNoRows {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

// ListAssignments returns all head assignments of a profile ordered by head
// number, with the tool code joined in.
func (s *Store) ListAssignments(profileID int64) ([]Assignment, error) {
	rows, err := s.db.Query(`
		SELECT a.id, a.profile_id, a.tool_id, a.head_number, a.rpm, a.pass_depth, a.work_material, a.remarks, t.code
		FROM assignments a JOIN tools t ON a.tool_id = t.id
		WHERE a.profile_id = ?
		ORDER BY a.head_number`, profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.ToolID, &a.HeadNumber, &a.RPM,
			&a.PassDepth, &a.WorkMaterial, &a.Remarks, &a.ToolCode); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// ClearHeadAssignment removes the assignment on a head slot.
func (s *Store) ClearHeadAssignment(profileID int64, headNumber int) error {
	res, err := s.db.Exec(`DELETE FROM assignments WHERE profile_id = ? AND head_number = ?`,
		profileID, headNumber)
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

// ListProfilesUsingTool returns the profile IDs whose setups mount the tool.
func (s *Store) ListProfilesUsingTool(toolID int64) ([]int64, error) {
	rows, err := s.db.Query(`SELECT DISTINCT profile_id FROM assignments WHERE tool_id = ? ORDER BY profile_id`, toolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
