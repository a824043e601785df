// Package store reads the searchable entity corpus from Postgres.
// Ingestion pipelines own the writes; the search service only takes
// read-only snapshots, so every method here is a plain SELECT and
// hidden or soft-deleted rows are filtered in SQL.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a Postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// ProductRecord is one product row as the index builder consumes it.
type ProductRecord struct {
	ID         string
	Slug       string
	Name       string
	Tagline    string
	Thumbnail  string
	CategoryID string
	Upvotes    int
	CreatedAt  time.Time
}

// JobRecord is one job posting row.
type JobRecord struct {
	ID           string
	Title        string
	CompanyName  string
	CompanyLogo  string
	JobType      string
	LocationType string
	PostedAt     time.Time
}

// ProjectRecord is one project row.
type ProjectRecord struct {
	ID           string
	Title        string
	Thumbnail    string
	CategoryID   string
	OwnerName    string
	Technologies []string
	CreatedAt    time.Time
}

// UserRecord is one user profile row.
type UserRecord struct {
	ID          string
	Username    string
	Name        string
	Role        string
	AvatarURL   string
	CompanyName string
	Followers   int
}

// CategoryRecord is one category row.
type CategoryRecord struct {
	ID   string
	Name string
	Slug string
	Icon string
}

func (s *Store) ListProducts(ctx context.Context) ([]ProductRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, slug, name, COALESCE(tagline,''), COALESCE(thumbnail,''), COALESCE(category_id,''), upvotes, created_at
		FROM products WHERE deleted_at IS NULL AND NOT hidden`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductRecord
	for rows.Next() {
		var p ProductRecord
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Tagline, &p.Thumbnail, &p.CategoryID, &p.Upvotes, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListJobs(ctx context.Context) ([]JobRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, title, company_name, COALESCE(company_logo,''), COALESCE(job_type,''), COALESCE(location_type,''), posted_at
		FROM jobs WHERE deleted_at IS NULL AND NOT hidden`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JobRecord
	for rows.Next() {
		var j JobRecord
		if err := rows.Scan(&j.ID, &j.Title, &j.CompanyName, &j.CompanyLogo, &j.JobType, &j.LocationType, &j.PostedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) ListProjects(ctx context.Context) ([]ProjectRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, title, COALESCE(thumbnail,''), COALESCE(category_id,''), COALESCE(owner_name,''), COALESCE(technologies,'{}'), created_at
		FROM projects WHERE deleted_at IS NULL AND NOT hidden`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProjectRecord
	for rows.Next() {
		var p ProjectRecord
		if err := rows.Scan(&p.ID, &p.Title, &p.Thumbnail, &p.CategoryID, &p.OwnerName, pq.Array(&p.Technologies), &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListUsers(ctx context.Context) ([]UserRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, username, COALESCE(name,''), COALESCE(role,''), COALESCE(profile_picture,''), COALESCE(company_name,''), followers
		FROM users WHERE deleted_at IS NULL AND NOT hidden`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserRecord
	for rows.Next() {
		var u UserRecord
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Role, &u.AvatarURL, &u.CompanyName, &u.Followers); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ListCategories(ctx context.Context) ([]CategoryRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, slug, COALESCE(icon,'') FROM categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryRecord
	for rows.Next() {
		var c CategoryRecord
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
