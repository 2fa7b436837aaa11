package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-intake/internal/domain"
)

const (
	defaultReceiptLimit = 20
	maxReceiptLimit     = 100
)

// ReceiptRepository persists ticket receipts so requesters can track them.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *domain.ReceiptRecord) error
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.ReceiptRecord, error)
}

type receiptRepository struct {
	pool *pgxpool.Pool
}

// NewReceiptRepository constructs repository.
func NewReceiptRepository(pool *pgxpool.Pool) ReceiptRepository {
	return &receiptRepository{pool: pool}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *domain.ReceiptRecord) error {
	const query = `
        INSERT INTO ticket_receipts (ticket_id, email, title, priority, submitted_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		receipt.TicketID,
		normalizeEmail(receipt.Email),
		receipt.Title,
		receipt.Priority,
		receipt.SubmittedAt,
	).Scan(&receipt.ID)
}

func (r *receiptRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.ReceiptRecord, error) {
	const query = `
        SELECT id, ticket_id, email, title, priority, submitted_at
        FROM ticket_receipts
        WHERE email=$1
        ORDER BY submitted_at DESC
        LIMIT $2 OFFSET $3`
	limit, offset = ClampPage(limit, offset)
	rows, err := r.pool.Query(ctx, query, normalizeEmail(email), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReceipts(rows)
}

func scanReceipts(rows pgx.Rows) ([]domain.ReceiptRecord, error) {
	result := []domain.ReceiptRecord{}
	for rows.Next() {
		var rec domain.ReceiptRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.TicketID,
			&rec.Email,
			&rec.Title,
			&rec.Priority,
			&rec.SubmittedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// ClampPage bounds paging input to sane values.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultReceiptLimit
	}
	if limit > maxReceiptLimit {
		limit = maxReceiptLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
