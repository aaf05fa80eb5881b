package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// maxAllocateAttempts bounds the retry loop around order creation. The
// sequence upsert itself is atomic; retries only cover serialization failures
// and the unique backstop on order_number.
const maxAllocateAttempts = 3

type ListQuery struct {
	ClientID string
	Status   Status
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, o *Order, note Note) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, q ListQuery) ([]Order, error)
	ApplyTransition(ctx context.Context, id string, requested Status, actor Actor, freeText string) (*Order, error)
	Delete(ctx context.Context, id string, actor Actor) error
	AddNote(ctx context.Context, id string, actor Actor, text string) (*Note, error)
	Assign(ctx context.Context, id, staffID string, actor Actor) (*Order, error)
	OverridePrice(ctx context.Context, id string, price decimal.Decimal, actor Actor) (*Order, error)
	RecordPayment(ctx context.Context, orderID string, amount decimal.Decimal, method string, state PaymentState, actor Actor) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID string, requested PaymentState, actor Actor) (*Order, error)
	Refund(ctx context.Context, orderID string, actor Actor) (*Order, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// Create allocates the order number and inserts the order plus its creation
// audit note in one transaction. On an allocation race it retries the whole
// transaction up to maxAllocateAttempts before giving up with ErrConflict.
func (r *PGRepo) Create(ctx context.Context, o *Order, note Note) error {
	var err error
	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		if err = r.createOnce(ctx, o, note); err == nil {
			return nil
		}
		if !retryableAllocation(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrConflict, err)
}

func (r *PGRepo) createOnce(ctx context.Context, o *Order, note Note) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	number, err := allocateNumberTx(ctx, tx, o.CreatedAt.Year())
	if err != nil {
		return err
	}
	o.Number = number

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, client_id, service_id, status, payment_status, price, assigned_to, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
	`, o.ID, o.Number, o.ClientID, o.ServiceID, o.Status, o.PaymentStatus, o.Price, o.AssignedTo, o.CreatedAt); err != nil {
		return err
	}
	if err := insertNoteTx(ctx, tx, note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// retryableAllocation: SQLSTATE 40001 (serialization_failure) or a 23505 on
// the order_number unique index.
func retryableAllocation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code == "40001" {
		return true
	}
	return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "order_number")
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	err := r.db.QueryRow(ctx, `
		SELECT id, order_number, client_id, service_id, status, payment_status, price, assigned_to,
		       created_at, updated_at, completed_at, cancelled_at
		FROM orders WHERE id=$1
	`, id).Scan(&o.ID, &o.Number, &o.ClientID, &o.ServiceID, &o.Status, &o.PaymentStatus, &o.Price,
		&o.AssignedTo, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt, &o.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if o.Payments, err = loadPayments(ctx, r.db, id); err != nil {
		return nil, err
	}
	if o.Notes, err = loadNotes(ctx, r.db, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) List(ctx context.Context, q ListQuery) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_number, client_id, service_id, status, payment_status, price, assigned_to,
		       created_at, updated_at, completed_at, cancelled_at
		FROM orders
		WHERE ($1 = '' OR client_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY order_number DESC
		LIMIT $3 OFFSET $4
	`, q.ClientID, string(q.Status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Number, &o.ClientID, &o.ServiceID, &o.Status, &o.PaymentStatus,
			&o.Price, &o.AssignedTo, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt, &o.CancelledAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ApplyTransition re-validates the edge under the order row lock and persists
// the status change together with its audit note.
func (r *PGRepo) ApplyTransition(ctx context.Context, id string, requested Status, actor Actor, freeText string) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrderTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	note, err := Transition(o, requested, actor, freeText, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3, completed_at = $4, cancelled_at = $5
		WHERE id = $1
	`, o.ID, o.Status, o.UpdatedAt, o.CompletedAt, o.CancelledAt); err != nil {
		return nil, err
	}
	if err := insertNoteTx(ctx, tx, note); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes an order that never left the new state. Anything else is a
// policy violation, not a storage failure.
func (r *PGRepo) Delete(ctx context.Context, id string, actor Actor) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrderTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if actor.Role == RoleClient && o.ClientID != actor.ID {
		return ErrForbidden
	}
	if o.Status != StatusNew {
		return ErrForbidden
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) AddNote(ctx context.Context, id string, actor Actor, text string) (*Note, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var clientID string
	var status Status
	err := r.db.QueryRow(ctx, `SELECT client_id, status FROM orders WHERE id=$1`, id).Scan(&clientID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actor.Role == RoleClient && clientID != actor.ID {
		return nil, ErrForbidden
	}
	// A cancelled order accepts no further mutation, audit entries included.
	if status == StatusCancelled {
		return nil, ErrInvalidState
	}

	n := Note{
		ID:        uuid.NewString(),
		OrderID:   id,
		AuthorID:  actor.ID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO order_notes (id, order_id, author_id, text, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, n.ID, n.OrderID, n.AuthorID, n.Text, n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// Assign sets the staff actor responsible for the order. Caller must already
// have validated that staffID exists and that the actor is an admin.
func (r *PGRepo) Assign(ctx context.Context, id, staffID string, actor Actor) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrderTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if Terminal(o.Status) {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET assigned_to = $2, updated_at = $3 WHERE id = $1
	`, id, staffID, now); err != nil {
		return nil, err
	}
	note := Note{
		ID:        uuid.NewString(),
		OrderID:   id,
		AuthorID:  actor.ID,
		Text:      fmt.Sprintf("assigned to %s", staffID),
		CreatedAt: now,
	}
	if err := insertNoteTx(ctx, tx, note); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// OverridePrice replaces the quoted price. Allowed exactly once, while the
// order is still new and before any payment has been recorded.
func (r *PGRepo) OverridePrice(ctx context.Context, id string, price decimal.Decimal, actor Actor) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrderTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusNew {
		return nil, ErrInvalidState
	}
	var overridden bool
	if err := tx.QueryRow(ctx, `SELECT price_overridden FROM orders WHERE id=$1`, id).Scan(&overridden); err != nil {
		return nil, err
	}
	if overridden {
		return nil, ErrInvalidState
	}
	var paymentCount int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE order_id=$1`, id).Scan(&paymentCount); err != nil {
		return nil, err
	}
	if paymentCount > 0 {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET price = $2, price_overridden = TRUE, updated_at = $3 WHERE id = $1
	`, id, price, now); err != nil {
		return nil, err
	}
	note := Note{
		ID:        uuid.NewString(),
		OrderID:   id,
		AuthorID:  actor.ID,
		Text:      fmt.Sprintf("price %s -> %s", o.Price.StringFixed(2), price.StringFixed(2)),
		CreatedAt: now,
	}
	if err := insertNoteTx(ctx, tx, note); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// RecordPayment inserts the payment and persists the re-derived payment
// status on the order in the same transaction. The order row lock serializes
// every payment write for the order.
func (r *PGRepo) RecordPayment(ctx context.Context, orderID string, amount decimal.Decimal, method string, state PaymentState, actor Actor) (*Payment, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == RoleClient && o.ClientID != actor.ID {
		return nil, ErrForbidden
	}
	if o.Status == StatusCancelled || o.PaymentStatus == PaymentRefunded {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	p := Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    state,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, amount, method, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)
	`, p.ID, p.OrderID, p.Amount, p.Method, p.Status, p.CreatedAt); err != nil {
		return nil, err
	}
	if err := reconcileOrderTx(ctx, tx, o, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePaymentStatus moves a payment along its state graph and re-derives
// the order's payment status from the full payment set, atomically with the
// payment write. Voiding a completed payment demotes paid/partial correctly
// because the verdict is recomputed, never incremented.
func (r *PGRepo) UpdatePaymentStatus(ctx context.Context, paymentID string, requested PaymentState, actor Actor) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID string
	err = tx.QueryRow(ctx, `SELECT order_id FROM payments WHERE id=$1`, paymentID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	// Lock the order first: every payment mutation for an order takes this
	// lock, which rules out lost updates between concurrent reconciliations.
	o, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	// A cancelled order accepts no further mutation, payment states included.
	if o.Status == StatusCancelled {
		return nil, ErrInvalidState
	}

	var current PaymentState
	if err := tx.QueryRow(ctx, `SELECT status FROM payments WHERE id=$1`, paymentID).Scan(&current); err != nil {
		return nil, err
	}
	if err := CheckPaymentTransition(current, requested); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1
	`, paymentID, requested, now); err != nil {
		return nil, err
	}
	if err := reconcileOrderTx(ctx, tx, o, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// Refund applies the terminal payment-status override. Requires money to have
// actually moved (paid or partial).
func (r *PGRepo) Refund(ctx context.Context, orderID string, actor Actor) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := lockOrderTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != PaymentPaid && o.PaymentStatus != PaymentPartial {
		return nil, ErrInvalidState
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = $3 WHERE id = $1
	`, orderID, PaymentRefunded, now); err != nil {
		return nil, err
	}
	note := Note{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		AuthorID:  actor.ID,
		Text:      fmt.Sprintf("payment status %s -> %s", o.PaymentStatus, PaymentRefunded),
		CreatedAt: now,
	}
	if err := insertNoteTx(ctx, tx, note); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// ---------- transaction helpers ----------

func lockOrderTx(ctx context.Context, tx pgx.Tx, id string) (*Order, error) {
	var o Order
	err := tx.QueryRow(ctx, `
		SELECT id, order_number, client_id, service_id, status, payment_status, price, assigned_to,
		       created_at, updated_at, completed_at, cancelled_at
		FROM orders WHERE id=$1
		FOR UPDATE
	`, id).Scan(&o.ID, &o.Number, &o.ClientID, &o.ServiceID, &o.Status, &o.PaymentStatus, &o.Price,
		&o.AssignedTo, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt, &o.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// reconcileOrderTx re-runs the ledger reduction over the full payment set and
// persists the verdict, unless the order carries the refunded override.
func reconcileOrderTx(ctx context.Context, tx pgx.Tx, o *Order, now time.Time) error {
	if o.PaymentStatus == PaymentRefunded {
		return nil
	}
	payments, err := loadPayments(ctx, tx, o.ID)
	if err != nil {
		return err
	}
	verdict := Reconcile(o.Price, payments)
	if verdict == o.PaymentStatus {
		return nil
	}
	_, err = tx.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = $3 WHERE id = $1
	`, o.ID, verdict, now)
	return err
}

func insertNoteTx(ctx context.Context, tx pgx.Tx, n Note) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_notes (id, order_id, author_id, text, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, n.ID, n.OrderID, n.AuthorID, n.Text, n.CreatedAt)
	return err
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadPayments(ctx context.Context, q querier, orderID string) ([]Payment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, amount, method, status, created_at, updated_at
		FROM payments WHERE order_id=$1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func loadNotes(ctx context.Context, q querier, orderID string) ([]Note, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, author_id, text, created_at
		FROM order_notes WHERE order_id=$1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.OrderID, &n.AuthorID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
