package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/rehab-scheduler/internal/therapy"
)

// Repository stores invoices.
type Repository interface {
	NextInvoiceNo(ctx context.Context) (int64, error)
	Create(ctx context.Context, inv Invoice) error
	Update(ctx context.Context, inv Invoice) error
	Delete(ctx context.Context, invoiceNo int64) error
	Get(ctx context.Context, invoiceNo int64) (Invoice, error)
	List(ctx context.Context, f Filter) ([]Invoice, error)
	CustomerTotal(ctx context.Context, customerID int64) (int64, error)
}

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

const selectColumns = `SELECT invoice_no, issued_at, due_at, customer_id, first_name, last_name, service, sessions, per_session_cents, total_cents, mobile FROM invoices`

// PostgresRepository stores invoices in the invoices table.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a repository on db.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("invoices: db required")
	}
	return &PostgresRepository{db: db}
}

// NextInvoiceNo returns one past the highest invoice number, 1 when empty.
func (r *PostgresRepository) NextInvoiceNo(ctx context.Context) (int64, error) {
	var highest int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(invoice_no), 0) FROM invoices`).Scan(&highest); err != nil {
		return 0, fmt.Errorf("invoices: next number: %w", err)
	}
	return highest + 1, nil
}

// Create inserts inv using its own invoice number.
func (r *PostgresRepository) Create(ctx context.Context, inv Invoice) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO invoices (invoice_no, issued_at, due_at, customer_id, first_name, last_name, service, sessions, per_session_cents, total_cents, mobile)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inv.InvoiceNo, inv.IssuedAt, inv.DueAt, inv.CustomerID, inv.FirstName, inv.LastName,
		string(inv.Service), inv.Sessions, inv.PerSessionCents, inv.TotalCents, inv.Mobile,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("invoices: create %d: %w", inv.InvoiceNo, ErrDuplicateInvoiceNo)
		}
		return fmt.Errorf("invoices: create %d: %w", inv.InvoiceNo, err)
	}
	return nil
}

// Update overwrites every column of inv's row.
func (r *PostgresRepository) Update(ctx context.Context, inv Invoice) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET issued_at = $1, due_at = $2, customer_id = $3, first_name = $4, last_name = $5,
			service = $6, sessions = $7, per_session_cents = $8, total_cents = $9, mobile = $10
		WHERE invoice_no = $11`,
		inv.IssuedAt, inv.DueAt, inv.CustomerID, inv.FirstName, inv.LastName,
		string(inv.Service), inv.Sessions, inv.PerSessionCents, inv.TotalCents, inv.Mobile,
		inv.InvoiceNo,
	)
	if err != nil {
		return fmt.Errorf("invoices: update %d: %w", inv.InvoiceNo, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoices: update %d: %w", inv.InvoiceNo, ErrNotFound)
	}
	return nil
}

// Delete removes an invoice.
func (r *PostgresRepository) Delete(ctx context.Context, invoiceNo int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE invoice_no = $1`, invoiceNo)
	if err != nil {
		return fmt.Errorf("invoices: delete %d: %w", invoiceNo, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoices: delete %d: %w", invoiceNo, ErrNotFound)
	}
	return nil
}

// Get loads one invoice.
func (r *PostgresRepository) Get(ctx context.Context, invoiceNo int64) (Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, selectColumns+` WHERE invoice_no = $1`, invoiceNo))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("invoices: get %d: %w", invoiceNo, ErrNotFound)
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("invoices: get %d: %w", invoiceNo, err)
	}
	return inv, nil
}

// List returns matching invoices, newest number first.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Invoice, error) {
	where, args := whereClause(f)
	query := selectColumns
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY invoice_no DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	defer rows.Close()

	out := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("invoices: scan: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	return out, nil
}

// CustomerTotal sums the totals billed to a customer.
func (r *PostgresRepository) CustomerTotal(ctx context.Context, customerID int64) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_cents), 0) FROM invoices WHERE customer_id = $1`, customerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("invoices: customer total %d: %w", customerID, err)
	}
	return total, nil
}

func whereClause(f Filter) (string, []any) {
	if f.InvoiceNo != nil {
		return "invoice_no = $1", []any{*f.InvoiceNo}
	}
	if f.CustomerID != nil {
		return "customer_id = $1", []any{*f.CustomerID}
	}

	var (
		clauses []string
		args    []any
	)
	add := func(expr, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+escapeLike(value)+"%")
		clauses = append(clauses, fmt.Sprintf("%s LIKE $%d", expr, len(args)))
	}
	add("to_char(issued_at, 'YYYY-MM-DD HH24:MI:SS')", f.Issued)
	add("CAST(customer_id AS TEXT)", f.CustomerIDLike)
	add("first_name", f.FirstName)
	add("last_name", f.LastName)
	add("mobile", f.Mobile)
	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv     Invoice
		service string
	)
	err := row.Scan(
		&inv.InvoiceNo, &inv.IssuedAt, &inv.DueAt, &inv.CustomerID, &inv.FirstName, &inv.LastName,
		&service, &inv.Sessions, &inv.PerSessionCents, &inv.TotalCents, &inv.Mobile,
	)
	if err != nil {
		return Invoice{}, err
	}
	inv.Service = therapy.Type(service)
	return inv, nil
}
