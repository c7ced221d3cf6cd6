package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func (s *Store) ListPillars() ([]Pillar, error) {
	rows, err := s.db.Query(`SELECT id, name, description, color, created_at FROM pillars ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list pillars: %w", err)
	}
	defer rows.Close()

	var pillars []Pillar
	for rows.Next() {
		var p Pillar
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Color, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		pillars = append(pillars, p)
	}
	return pillars, rows.Err()
}

func (s *Store) GetPillar(id int64) (*Pillar, error) {
	p := &Pillar{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, name, description, color, created_at FROM pillars WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Color, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pillar %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pillar %d: %w", id, err)
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

func (s *Store) CreateCategory(pillarID int64, name, color string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("category name is required")
	}
	if _, err := s.GetPillar(pillarID); err != nil {
		return nil, err
	}
	if color == "" {
		color = "#6C63FF"
	}
	now := nowString()
	res, err := s.db.Exec(
		`INSERT INTO categories (pillar_id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		pillarID, name, color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetCategory(id)
}

func (s *Store) GetCategory(id int64) (*Category, error) {
	c := &Category{}
	var createdAt, updatedAt string
	var archived int
	err := s.db.QueryRow(
		`SELECT id, pillar_id, name, color, archived, created_at, updated_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.PillarID, &c.Name, &c.Color, &archived, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	c.Archived = archived == 1
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

func (s *Store) ListCategories(pillarID int64, includeArchived bool) ([]Category, error) {
	query := `SELECT id, pillar_id, name, color, archived, created_at, updated_at FROM categories WHERE pillar_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query, pillarID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		var createdAt, updatedAt string
		var archived int
		if err := rows.Scan(&c.ID, &c.PillarID, &c.Name, &c.Color, &archived, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.Archived = archived == 1
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) UpdateCategory(id int64, name, color string) error {
	_, err := s.db.Exec(
		`UPDATE categories SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, color, nowString(), id,
	)
	return err
}

func (s *Store) ArchiveCategory(id int64) error {
	_, err := s.db.Exec(
		`UPDATE categories SET archived = 1, updated_at = ? WHERE id = ?`, nowString(), id,
	)
	return err
}
