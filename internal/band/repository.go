package band

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"musicfestival/m/domain"
)

// ErrNotFound is returned when no band exists with the requested id.
var ErrNotFound = errors.New("band not found")

// Page is one slice of a filtered, sorted listing. TotalCount is the match
// count before pagination.
type Page struct {
	TotalCount int               `json:"totalCount"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
	Items      []domain.BandRead `json:"items"`
}

// Repository stores band records in SQLite.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.Band, error) {
	var b domain.Band
	err := r.db.GetContext(ctx, &b, `SELECT id, name, genre, stage, scheduled_at FROM bands WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get band: %w", err)
	}
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, b *domain.Band) error {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO bands (name, genre, stage, scheduled_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		b.Name, b.Genre, b.Stage, b.ScheduledAt).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("create band: %w", err)
	}
	return nil
}

// Update replaces all mutable fields of an existing band.
func (r *Repository) Update(ctx context.Context, b *domain.Band) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bands SET name = $1, genre = $2, stage = $3, scheduled_at = $4 WHERE id = $5`,
		b.Name, b.Genre, b.Stage, b.ScheduledAt, b.ID)
	if err != nil {
		return fmt.Errorf("update band: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update band: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete band: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete band: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List executes a normalized FilterSpec: filter, then sort, then paginate.
// A NULL column never matches a filter (LIKE and range comparisons against
// NULL are not true in SQLite). Every ordering ends with id ASC so records
// with equal sort keys keep a stable position across pages.
func (r *Repository) List(ctx context.Context, spec FilterSpec) (*Page, error) {
	var (
		clauses []string
		args    []interface{}
	)

	if spec.Genre != "" {
		args = append(args, "%"+strings.ToLower(spec.Genre)+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(genre) LIKE $%d", len(args)))
	}
	if spec.Stage != "" {
		args = append(args, "%"+strings.ToLower(spec.Stage)+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(stage) LIKE $%d", len(args)))
	}
	if spec.DateFrom != "" {
		args = append(args, spec.DateFrom)
		clauses = append(clauses, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if spec.DateTo != "" {
		args = append(args, spec.DateTo)
		clauses = append(clauses, fmt.Sprintf("scheduled_at <= $%d", len(args)))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM bands"+where, args...); err != nil {
		return nil, fmt.Errorf("count bands: %w", err)
	}

	direction := "ASC"
	if spec.Desc {
		direction = "DESC"
	}
	var order string
	switch spec.Sort {
	case SortByName:
		order = "name " + direction + ", id ASC"
	case SortByDate:
		order = "scheduled_at " + direction + ", id ASC"
	default:
		order = "id ASC"
	}

	query := fmt.Sprintf("SELECT id, name, genre, stage, scheduled_at FROM bands%s ORDER BY %s LIMIT $%d OFFSET $%d",
		where, order, len(args)+1, len(args)+2)
	args = append(args, spec.PageSize, (spec.Page-1)*spec.PageSize)

	var bands []domain.Band
	if err := r.db.SelectContext(ctx, &bands, query, args...); err != nil {
		return nil, fmt.Errorf("list bands: %w", err)
	}

	items := make([]domain.BandRead, len(bands))
	for i, b := range bands {
		items[i] = b.Read()
	}

	return &Page{
		TotalCount: total,
		Page:       spec.Page,
		PageSize:   spec.PageSize,
		TotalPages: (total + spec.PageSize - 1) / spec.PageSize,
		Items:      items,
	}, nil
}
