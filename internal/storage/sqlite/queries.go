package sqlite

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type (
	studentRow struct {
		RegNo        string
		Name         string
		Email        string
		Section      string
		BudgetType   string
		BudgetAmount float64
		Income       float64
	}

	expenseRow struct {
		ID       string
		Name     string
		Amount   float64
		Category string
		Date     string
		RegNo    string
	}

	splitRow struct {
		ID              string
		Name            string
		TotalAmount     float64
		AmountPerPerson float64
		CreatedBy       string
		Date            string
	}

	participantRow struct {
		SplitID  string
		Position int64
		RegNo    string
		Name     string
		Paid     bool
		Amount   float64
	}
)

const studentColumns = `reg_no, name, email, section, budget_type, budget_amount, income`

func scanStudent(sc interface{ Scan(...any) error }) (studentRow, error) {
	var r studentRow
	err := sc.Scan(&r.RegNo, &r.Name, &r.Email, &r.Section, &r.BudgetType, &r.BudgetAmount, &r.Income)
	return r, err
}

func (q *Queries) GetStudent(ctx context.Context, regNo string) (studentRow, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE reg_no = ?`, regNo)
	return scanStudent(row)
}

func (q *Queries) UpdateStudentBudget(ctx context.Context, regNo, budgetType string, amount float64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE students SET budget_type = ?, budget_amount = ? WHERE reg_no = ?`,
		budgetType, amount, regNo)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) UpdateStudentIncome(ctx context.Context, regNo string, income float64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE students SET income = ? WHERE reg_no = ?`, income, regNo)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SearchStudents folds case in Go rather than with LIKE, which only folds
// ASCII letters in SQLite. A limit below 1 returns every match.
func (q *Queries) SearchStudents(ctx context.Context, term, exclude string, limit int) ([]studentRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE reg_no <> ? ORDER BY rowid`,
		exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	needle := strings.ToLower(term)
	var out []studentRow
	for rows.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		r, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(r.RegNo), needle) || strings.Contains(strings.ToLower(r.Name), needle) {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

func (q *Queries) DeleteAllStudents(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM students`)
	return err
}

func (q *Queries) InsertStudent(ctx context.Context, r studentRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO students (`+studentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RegNo, r.Name, r.Email, r.Section, r.BudgetType, r.BudgetAmount, r.Income)
	return err
}

const expenseColumns = `id, name, amount, category, date, reg_no`

func scanExpense(sc interface{ Scan(...any) error }) (expenseRow, error) {
	var r expenseRow
	err := sc.Scan(&r.ID, &r.Name, &r.Amount, &r.Category, &r.Date, &r.RegNo)
	return r, err
}

func (q *Queries) InsertExpense(ctx context.Context, r expenseRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Amount, r.Category, r.Date, r.RegNo)
	return err
}

func (q *Queries) GetExpense(ctx context.Context, id string) (expenseRow, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

func (q *Queries) ListExpensesByRegNo(ctx context.Context, regNo string) ([]expenseRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE reg_no = ? ORDER BY date, created_at`, regNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []expenseRow
	for rows.Next() {
		r, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) UpdateExpense(ctx context.Context, r expenseRow) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE expenses SET name = ?, amount = ?, category = ?, date = ?, reg_no = ? WHERE id = ?`,
		r.Name, r.Amount, r.Category, r.Date, r.RegNo, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteExpense(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) InsertSplit(ctx context.Context, r splitRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO split_bills (id, name, total_amount, amount_per_person, created_by, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.TotalAmount, r.AmountPerPerson, r.CreatedBy, r.Date)
	return err
}

func (q *Queries) InsertParticipant(ctx context.Context, r participantRow) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO split_participants (split_id, position, reg_no, name, paid, amount)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.SplitID, r.Position, r.RegNo, r.Name, r.Paid, r.Amount)
	return err
}

// ListSplitsForRegNo matches the creator or any participant. EXISTS keeps a
// bill to one row even when regNo appears on it more than once.
func (q *Queries) ListSplitsForRegNo(ctx context.Context, regNo string) ([]splitRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT b.id, b.name, b.total_amount, b.amount_per_person, b.created_by, b.date
		 FROM split_bills b
		 WHERE b.created_by = ?
		    OR EXISTS (SELECT 1 FROM split_participants p WHERE p.split_id = b.id AND p.reg_no = ?)
		 ORDER BY b.date`,
		regNo, regNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []splitRow
	for rows.Next() {
		var r splitRow
		if err := rows.Scan(&r.ID, &r.Name, &r.TotalAmount, &r.AmountPerPerson, &r.CreatedBy, &r.Date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) ListParticipants(ctx context.Context, splitID string) ([]participantRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT split_id, position, reg_no, name, paid, amount
		 FROM split_participants WHERE split_id = ? ORDER BY position`, splitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []participantRow
	for rows.Next() {
		var r participantRow
		if err := rows.Scan(&r.SplitID, &r.Position, &r.RegNo, &r.Name, &r.Paid, &r.Amount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
