package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/menjava/internal/model"
)

const itemColumns = `id, owner_id, title, author, description, condition, tags, group_code, year,
	status, cover_mime, created_at, updated_at, deleted_at`

// CreateItem lists a new item. The item starts Available unless a status is set.
func CreateItem(ctx context.Context, db DBTX, item model.Item) (*model.Item, error) {
	if _, err := model.ParseCondition(string(item.Condition)); err != nil {
		return nil, err
	}
	if item.Status == "" {
		item.Status = model.ItemAvailable
	}
	if !item.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidRequest, item.Status)
	}
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, title, author, description, condition, tags, group_code, year, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.OwnerID, item.Title, item.Author, item.Description, item.Condition, tags,
		nullString(item.GroupCode), nullInt(item.Year), item.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, including soft-deleted ones.
func GetItem(ctx context.Context, db DBTX, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns non-deleted items matching filter in ascending id order.
func ListItems(ctx context.Context, db DBTX, filter model.ItemFilter) ([]model.Item, error) {
	where, args := itemWhere(filter)

	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+where+` ORDER BY id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func itemWhere(f model.ItemFilter) (string, []any) {
	conds := []string{"deleted_at IS NULL"}
	var args []any

	if f.OwnerID != 0 {
		conds = append(conds, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.ExcludeOwnerID != 0 {
		conds = append(conds, "owner_id <> ?")
		args = append(args, f.ExcludeOwnerID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.GroupCode != "" {
		conds = append(conds, "group_code = ?")
		args = append(args, f.GroupCode)
	}
	if len(f.Conditions) > 0 {
		conds = append(conds, "condition IN ("+placeholders(len(f.Conditions))+")")
		for _, c := range f.Conditions {
			args = append(args, c)
		}
	}
	if len(f.Tags) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(items.tags) WHERE value IN ("+placeholders(len(f.Tags))+"))")
		for _, t := range f.Tags {
			args = append(args, t)
		}
	}
	if f.Query != "" {
		like := "%" + escapeLike(strings.ToLower(f.Query)) + "%"
		conds = append(conds, `(LOWER(title) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(author, '')) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(group_code, '')) LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM json_each(items.tags) WHERE LOWER(value) LIKE ? ESCAPE '\'))`)
		args = append(args, like, like, like, like)
	}

	return strings.Join(conds, " AND "), args
}

// UpdateItem replaces an item's listing metadata. Status is left alone; it
// only changes through SetItemStatus.
func UpdateItem(ctx context.Context, db DBTX, item model.Item) error {
	if _, err := model.ParseCondition(string(item.Condition)); err != nil {
		return err
	}
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE items SET title = ?, author = ?, description = ?, condition = ?, tags = ?,
		        group_code = ?, year = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		item.Title, item.Author, item.Description, item.Condition, tags,
		nullString(item.GroupCode), nullInt(item.Year), item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemStatus changes an item's availability. It reports false when no
// such item exists.
func SetItemStatus(ctx context.Context, db DBTX, id int64, status model.ItemStatus) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return false, fmt.Errorf("setting item status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking item status update: %w", err)
	}
	return n > 0, nil
}

// DeleteItem soft-deletes an item. It stays fetchable by ID so request
// history keeps resolving.
func DeleteItem(ctx context.Context, db DBTX, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemCover stores an item's cover image.
func SetItemCover(ctx context.Context, db DBTX, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET cover = ?, cover_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item cover: %w", err)
	}
	return nil
}

// GetItemCover returns an item's cover image and MIME type.
func GetItemCover(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT cover, cover_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item cover: %w", err)
	}
	return image, mime.String, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var author, description, groupCode, coverMime sql.NullString
	var year sql.NullInt64
	var tags string
	err := s.Scan(&item.ID, &item.OwnerID, &item.Title, &author, &description, &item.Condition,
		&tags, &groupCode, &year, &item.Status, &coverMime,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of item %d: %w", item.ID, err)
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	item.Author = author.String
	item.Description = description.String
	item.GroupCode = groupCode.String
	item.Year = int(year.Int64)
	item.CoverMime = coverMime.String
	return item, nil
}

func encodeTags(tags []string) (string, error) {
	data, err := json.Marshal(model.NormalizeTags(tags))
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
