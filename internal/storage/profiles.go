package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const profileColumns = "id, name, description, feed_rate, material_id, drawing_id, created_at"

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var p Profile
	var materialID sql.NullInt64
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.FeedRate, &materialID, &p.DrawingID, &createdAt)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	p.MaterialID = materialID.Int64
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing created_at: %w", err)
	}
	p.CreatedAt = t
	return p, nil
}

// CreateProfile inserts a profile and returns its generated ID. A zero
// CreatedAt is stamped with the current time.
func (s *Store) CreateProfile(p Profile) (int64, error) {
	var materialID any
	if p.MaterialID != 0 {
		materialID = p.MaterialID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
		INSERT INTO profiles (name, description, feed_rate, material_id, drawing_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.FeedRate, materialID, p.DrawingID,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("profile %q: %w", p.Name, ErrDuplicate)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetProfile fetches a profile by ID.
func (s *Store) GetProfile(id int64) (Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

// GetProfileByName fetches a profile by its unique name.
func (s *Store) GetProfileByName(name string) (Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name)
	return scanProfile(row)
}

// ListProfiles returns all profiles ordered by name.
func (s *Store) ListProfiles() ([]Profile, error) {
	rows, err := s.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name, id`)
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

// UpdateProfile rewrites the mutable fields of a profile.
func (s *Store) UpdateProfile(p Profile) error {
	var materialID any
	if p.MaterialID != 0 {
		materialID = p.MaterialID
	}
	res, err := s.db.Exec(`
		UPDATE profiles SET name = ?, description = ?, feed_rate = ?, material_id = ?, drawing_id = ?
		WHERE id = ?`,
		p.Name, p.Description, p.FeedRate, materialID, p.DrawingID, p.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("profile %q: %w", p.Name, ErrDuplicate)
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

// DeleteProfile removes a profile. Tools, variants, and assignments go with
// it via ON DELETE CASCADE; the caller is responsible for attachment files.
func (s *Store) DeleteProfile(id int64) error {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
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

// CountProfiles returns the number of stored profiles.
func (s *Store) CountProfiles() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&n)
	return n, err
}
