package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/menjava/internal/model"
)

const requestColumns = `r.id, r.requester_id, r.requested_item_id, r.offered_item_id, r.status,
	r.message, r.created_at, r.updated_at`

// SaveRequest inserts an exchange request or replaces its mutable fields.
func SaveRequest(ctx context.Context, db DBTX, req *model.ExchangeRequest) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO exchange_requests
		     (id, requester_id, requested_item_id, offered_item_id, status, message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     status = excluded.status,
		     message = excluded.message,
		     updated_at = excluded.updated_at`,
		req.ID, req.RequesterID, req.RequestedItemID, req.OfferedItemID, req.Status,
		nullString(req.Message), req.CreatedAt.UTC(), req.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving exchange request: %w", err)
	}
	return nil
}

// GetRequest returns an exchange request by ID.
func GetRequest(ctx context.Context, db DBTX, id string) (*model.ExchangeRequest, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM exchange_requests r WHERE r.id = ?`, id,
	)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting exchange request: %w", err)
	}
	return req, nil
}

// ListRequests returns exchange requests matching filter, newest first.
// RequestedOwnerID resolves ownership through the items table.
func ListRequests(ctx context.Context, db DBTX, filter model.RequestFilter) ([]model.ExchangeRequest, error) {
	query := `SELECT ` + requestColumns + `
	          FROM exchange_requests r
	          JOIN items ri ON ri.id = r.requested_item_id`
	var conds []string
	var args []any

	if filter.RequesterID != 0 {
		conds = append(conds, "r.requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.RequestedOwnerID != 0 {
		conds = append(conds, "ri.owner_id = ?")
		args = append(args, filter.RequestedOwnerID)
	}
	if filter.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY r.created_at DESC, r.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing exchange requests: %w", err)
	}
	defer rows.Close()

	var reqs []model.ExchangeRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exchange request: %w", err)
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

func scanRequest(s scanner) (*model.ExchangeRequest, error) {
	req := &model.ExchangeRequest{}
	var message sql.NullString
	err := s.Scan(&req.ID, &req.RequesterID, &req.RequestedItemID, &req.OfferedItemID,
		&req.Status, &message, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	req.Message = message.String
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	return req, nil
}
