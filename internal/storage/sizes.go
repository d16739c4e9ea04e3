package storage

import (
	"database/sql"
)

// --- Material size catalog ---

// AddMaterialSize inserts a material size, deduplicating on (width,
// thickness): if an entry with the same dimensions exists, its ID is
// returned unchanged.
func (s *Store) AddMaterialSize(m MaterialSize) (int64, error) {
	var existing int64
	err := s.db.QueryRow(`SELECT id FROM material_sizes WHERE width = ? AND thickness = ?`,
		m.Width, m.Thickness).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := s.db.Exec(`
		INSERT INTO material_sizes (width, thickness, name, description)
		VALUES (?, ?, ?, ?)`,
		m.Width, m.Thickness, m.Name, m.Description,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetMaterialSize fetches a catalog entry by ID.
func (s *Store) GetMaterialSize(id int64) (MaterialSize, error) {
	var m MaterialSize
	err := s.db.QueryRow(`SELECT id, width, thickness, name, description FROM material_sizes WHERE id = ?`, id).
		Scan(&m.ID, &m.Width, &m.Thickness, &m.Name, &m.Description)
	if err == sql.ErrNoRows {
		return MaterialSize{}, ErrNotFound
	}
	return m, err
}

// ListMaterialSizes returns the catalog ordered by width then thickness.
func (s *Store) ListMaterialSizes() ([]MaterialSize, error) {
	rows, err := s.db.Query(`SELECT id, width, thickness, name, description FROM material_sizes ORDER BY width, thickness`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MaterialSize
	for rows.Next() {
		var m MaterialSize
		if err := rows.Scan(&m.ID, &m.Width, &m.Thickness, &m.Name, &m.Description); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// --- Product size variants ---

// AddProductVariant inserts a product size variant for a profile.
func (s *Store) AddProductVariant(v ProductVariant) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO product_variants (profile_id, width, thickness, tolerance, is_default, sort_order)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ProfileID, v.Width, v.Thickness, v.Tolerance, v.IsDefault, v.SortOrder,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListProductVariants returns a profile's size variants in sort order.
func (s *Store) ListProductVariants(profileID int64) ([]ProductVariant, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, width, thickness, tolerance, is_default, sort_order
		FROM product_variants WHERE profile_id = ?
		ORDER BY sort_order, id`, profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ProductVariant
	for rows.Next() {
		var v ProductVariant
		if err := rows.Scan(&v.ID, &v.ProfileID, &v.Width, &v.Thickness, &v.Tolerance, &v.IsDefault, &v.SortOrder); err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// UpdateProductVariant rewrites a variant.
func (s *Store) UpdateProductVariant(v ProductVariant) error {
	res, err := s.db.Exec(`
		UPDATE product_variants SET width = ?, thickness = ?, tolerance = ?, is_default = ?, sort_order = ?
		WHERE id = ?`,
		v.Width, v.Thickness, v.Tolerance, v.IsDefault, v.SortOrder, v.ID,
	)
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

// DeleteProductVariant removes a variant by ID.
func (s *Store) DeleteProductVariant(id int64) error {
	res, err := s.db.Exec(`DELETE FROM product_variants WHERE id = ?`, id)
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
