package storage

import (
	"strings"
)

// ToolFilter narrows tool queries. Zero fields match everything.
type ToolFilter struct {
	ProfileID  int64  // 0 = any profile
	Status     string // ready, in_service, worn
	Position   string // Bottom, Top, Right, Left
	Type       string // Straight, Profile
	CodePrefix string
	Notes      string // substring, case-insensitive
	HeadNumber int    // 0 = any; >0 restricts to tools mounted on that head
}

// ListToolsPage returns one page of tools matching the filter, ordered by
// (code, id). afterCode is the exclusive lower bound from the previous page
// ("" for the first page); repeated calls over unchanged data walk an
// identical sequence.
func (s *Store) ListToolsPage(f ToolFilter, afterCode string, limit int) ([]Tool, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + prefixedToolColumns("t") + ` FROM tools t`)

	var args []any
	var where []string

	if f.HeadNumber > 0 {
		sb.WriteString(` JOIN assignments a ON a.tool_id = t.id`)
		where = append(where, "a.head_number = ?")
		args = append(args, f.HeadNumber)
	}
	if f.ProfileID != 0 {
		where = append(where, "t.profile_id = ?")
		args = append(args, f.ProfileID)
	}
	if f.Status != "" {
		where = append(where, "t.status = ?")
		args = append(args, f.Status)
	}
	if f.Position != "" {
		where = append(where, "t.position = ?")
		args = append(args, f.Position)
	}
	if f.Type != "" {
		where = append(where, "t.tool_type = ?")
		args = append(args, f.Type)
	}
	if f.CodePrefix != "" {
		where = append(where, "t.code LIKE ?")
		args = append(args, f.CodePrefix+"%")
	}
	if f.Notes != "" {
		where = append(where, "t.notes LIKE '%' || ? || '%' COLLATE NOCASE")
		args = append(args, f.Notes)
	}
	if afterCode != "" {
		where = append(where, "t.code > ?")
		args = append(args, afterCode)
	}

	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY t.code, t.id LIMIT ?")
	args = append(args, limit)

	return s.queryTools(sb.String(), args...)
}

// SearchProfilesByName returns profiles whose name contains the query,
// case-insensitively, ordered by name.
func (s *Store) SearchProfilesByName(query string) ([]Profile, error) {
	rows, err := s.db.Query(`
		SELECT `+profileColumns+` FROM profiles
		WHERE name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY name, id`, query,
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

func prefixedToolColumns(alias string) string {
	return alias + ".id, " + alias + ".profile_id, " + alias + ".position, " +
		alias + ".tool_type, " + alias + ".set_number, " + alias + ".code, " +
		alias + ".knives_count, " + alias + ".status, " + alias + ".notes, " + alias + ".photo_id"
}
