package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pizzeria-be/internal/db"

	"github.com/lib/pq"
)

// Repository is the catalog storage. GetByIDs is the read contract the order
// engine relies on and must run on the caller's transaction.
type Repository interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*Item, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, f ListFilter) ([]*Item, error)
	Search(ctx context.Context, q string, category *Category, availableOnly bool) ([]*Item, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
	Create(ctx context.Context, p CreateItemParams) (*Item, error)
	Update(ctx context.Context, id int64, p UpdateItemParams) (*Item, error)
	SetAvailability(ctx context.Context, id int64, available bool) (*Item, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	conn db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{conn: conn}
}

const itemColumns = `id, name, description, category, size, price, is_available,
	preparation_time, calories, ingredients, allergens, image_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		it          Item
		prep, cal   sql.NullInt32
		ingredients sql.NullString
	)
	err := row.Scan(
		&it.ID, &it.Name, &it.Description, &it.Category, &it.Size, &it.Price, &it.IsAvailable,
		&prep, &cal, &ingredients, &it.Allergens, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if prep.Valid {
		v := int(prep.Int32)
		it.PreparationTime = &v
	}
	if cal.Valid {
		v := int(cal.Int32)
		it.Calories = &v
	}
	it.Ingredients = splitIngredients(ingredients.String)
	return &it, nil
}

func splitIngredients(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinIngredients(list []string) *string {
	if len(list) == 0 {
		return nil
	}
	s := strings.Join(list, ", ")
	return &s
}

func scanItems(rows *sql.Rows) ([]*Item, error) {
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func mapWriteError(err error) error {
	if constraint, ok := db.UniqueViolation(err); ok && constraint == constraintItemsName {
		return ErrItemNameExists
	}
	return err
}

func (r *repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*Item, error) {
	out := make(map[int64]*Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get items by ids: %w", err)
	}

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Item, error) {
	it, err := scanItem(r.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	return it, err
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	args := []any{}
	argPos := 1

	if f.AvailableOnly {
		query += " AND is_available = TRUE"
	}
	if f.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, string(*f.Category))
		argPos++
	}
	if f.Size != nil {
		query += fmt.Sprintf(" AND size = $%d", argPos)
		args = append(args, string(*f.Size))
		argPos++
	}

	query += " ORDER BY category, name"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return scanItems(rows)
}

func (r *repository) Search(ctx context.Context, q string, category *Category, availableOnly bool) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE (name ILIKE $1 OR description ILIKE $1 OR ingredients ILIKE $1)`
	args := []any{"%" + q + "%"}

	if availableOnly {
		query += " AND is_available = TRUE"
	}
	if category != nil {
		query += " AND category = $2"
		args = append(args, string(*category))
	}
	query += " ORDER BY name"

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return scanItems(rows)
}

func (r *repository) Categories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM items
		WHERE is_available = TRUE
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("item categories: %w", err)
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, p CreateItemParams) (*Item, error) {
	it, err := scanItem(r.conn.QueryRowContext(ctx, `
		INSERT INTO items (name, description, category, size, price, is_available,
			preparation_time, calories, ingredients, allergens, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+itemColumns,
		p.Name, p.Description, string(p.Category), string(p.Size), p.Price, p.IsAvailable,
		p.PreparationTime, p.Calories, joinIngredients(p.Ingredients), p.Allergens, p.ImageURL,
	))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return it, nil
}

func (r *repository) Update(ctx context.Context, id int64, p UpdateItemParams) (*Item, error) {
	sets := []string{}
	args := []any{}
	argPos := 1

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Category != nil {
		set("category", string(*p.Category))
	}
	if p.Size != nil {
		set("size", string(*p.Size))
	}
	if p.Price != nil {
		set("price", *p.Price)
	}
	if p.IsAvailable != nil {
		set("is_available", *p.IsAvailable)
	}
	if p.PreparationTime != nil {
		set("preparation_time", *p.PreparationTime)
	}
	if p.Calories != nil {
		set("calories", *p.Calories)
	}
	if p.Ingredients != nil {
		set("ingredients", joinIngredients(*p.Ingredients))
	}
	if p.Allergens != nil {
		set("allergens", *p.Allergens)
	}
	if p.ImageURL != nil {
		set("image_url", *p.ImageURL)
	}
	if len(sets) == 0 {
		return nil, ErrNothingToUpdate
	}

	query := fmt.Sprintf(`UPDATE items SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argPos, itemColumns)
	args = append(args, id)

	it, err := scanItem(r.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return it, nil
}

func (r *repository) SetAvailability(ctx context.Context, id int64, available bool) (*Item, error) {
	it, err := scanItem(r.conn.QueryRowContext(ctx,
		`UPDATE items SET is_available = $1, updated_at = NOW() WHERE id = $2 RETURNING `+itemColumns,
		available, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	return it, err
}

func (r *repository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM order_items WHERE item_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check item references: %w", err)
	}
	return exists, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
