package leave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (s *Store) ListLeaveTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error) {
	query := `
    SELECT id, name, default_days, is_carry_forward, max_carry_forward_days,
           COALESCE(applicable_gender, ''), is_half_day_allowed, is_paid_leave, is_active, created_at
    FROM leave_types
  `
	if !includeInactive {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.DefaultDays, &t.IsCarryForward, &t.MaxCarryForwardDays,
			&t.ApplicableGender, &t.IsHalfDayAllowed, &t.IsPaidLeave, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) LeaveTypeByID(ctx context.Context, leaveTypeID string) (LeaveType, error) {
	var t LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, default_days, is_carry_forward, max_carry_forward_days,
           COALESCE(applicable_gender, ''), is_half_day_allowed, is_paid_leave, is_active, created_at
    FROM leave_types
    WHERE id = $1
  `, leaveTypeID).Scan(&t.ID, &t.Name, &t.DefaultDays, &t.IsCarryForward, &t.MaxCarryForwardDays,
		&t.ApplicableGender, &t.IsHalfDayAllowed, &t.IsPaidLeave, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, fmt.Errorf("leave type %s: %w", leaveTypeID, ErrNotFound)
	}
	if err != nil {
		return LeaveType{}, err
	}
	return t, nil
}

func (s *Store) CreateLeaveType(ctx context.Context, leaveType LeaveType) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, default_days, is_carry_forward, max_carry_forward_days,
                             applicable_gender, is_half_day_allowed, is_paid_leave, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, leaveType.Name, leaveType.DefaultDays, leaveType.IsCarryForward, leaveType.MaxCarryForwardDays,
		nullIfEmpty(leaveType.ApplicableGender), leaveType.IsHalfDayAllowed, leaveType.IsPaidLeave, leaveType.IsActive).Scan(&id)
	return id, err
}

func (s *Store) ListHolidays(ctx context.Context) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, date, name, is_active
    FROM holidays
    ORDER BY date
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.IsActive); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) CreateHoliday(ctx context.Context, day time.Time, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO holidays (date, name, is_active)
    VALUES ($1,$2,true)
    ON CONFLICT (date) DO NOTHING
    RETURNING id
  `, Midnight(day), name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("holiday on %s already exists: %w", day.Format("2006-01-02"), ErrConflict)
	}
	return id, err
}

func (s *Store) DeleteHoliday(ctx context.Context, holidayID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM holidays WHERE id = $1", holidayID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("holiday %s: %w", holidayID, ErrNotFound)
	}
	return nil
}

func (s *Store) ActiveHolidayDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT date FROM holidays
    WHERE is_active = true AND date BETWEEN $1 AND $2
  `, Midnight(from), Midnight(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		dates = append(dates, day)
	}
	return dates, rows.Err()
}

func (s *Store) ListWorkflows(ctx context.Context) ([]ApprovalWorkflow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, min_days, max_days, levels, is_active, created_at
    FROM approval_workflows
    ORDER BY min_days
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []ApprovalWorkflow
	for rows.Next() {
		var wf ApprovalWorkflow
		var levelsJSON []byte
		if err := rows.Scan(&wf.ID, &wf.Name, &wf.MinDays, &wf.MaxDays, &levelsJSON, &wf.IsActive, &wf.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(levelsJSON, &wf.Levels); err != nil {
			return nil, fmt.Errorf("workflow %s levels: %w", wf.ID, err)
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

func (s *Store) CreateWorkflow(ctx context.Context, workflow ApprovalWorkflow) (string, error) {
	levelsJSON, err := json.Marshal(workflow.Levels)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO approval_workflows (name, min_days, max_days, levels, is_active)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, workflow.Name, workflow.MinDays, workflow.MaxDays, levelsJSON, workflow.IsActive).Scan(&id)
	return id, err
}

const requestColumns = `
    id, user_id, leave_type_id, start_date, end_date, request_type, days,
    COALESCE(reason, ''), status, COALESCE(approver_id::text, ''),
    COALESCE(approver_comments, ''), approved_at, created_at
`

func scanRequest(row pgx.Row) (LeaveRequest, error) {
	var req LeaveRequest
	err := row.Scan(&req.ID, &req.UserID, &req.LeaveTypeID, &req.StartDate, &req.EndDate,
		&req.RequestType, &req.Days, &req.Reason, &req.Status, &req.ApproverID,
		&req.ApproverComments, &req.ApprovedAt, &req.CreatedAt)
	return req, err
}

func (s *Store) RequestByID(ctx context.Context, requestID string) (LeaveRequest, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx,
		"SELECT "+requestColumns+" FROM leave_requests WHERE id = $1", requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, fmt.Errorf("leave request %s: %w", requestID, ErrNotFound)
	}
	return req, err
}

func (s *Store) ListRequests(ctx context.Context, filter RequestFilter) ([]LeaveRequest, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	addArg := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.UserID != "" {
		addArg(" AND user_id = $%d", filter.UserID)
	}
	if filter.ManagerID != "" {
		addArg(" AND user_id IN (SELECT id FROM users WHERE manager_id = $%d)", filter.ManagerID)
	}
	if len(filter.Statuses) > 0 {
		addArg(" AND status = ANY($%d)", filter.Statuses)
	}
	if !filter.From.IsZero() {
		addArg(" AND end_date >= $%d", Midnight(filter.From))
	}
	if !filter.To.IsZero() {
		addArg(" AND start_date <= $%d", Midnight(filter.To))
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + requestColumns + " FROM leave_requests" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

func (s *Store) BalancesForUser(ctx context.Context, userID string, year int) ([]LeaveBalance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, leave_type_id, year, balance, used, carry_forward, updated_at
    FROM leave_balances
    WHERE user_id = $1 AND year = $2
  `, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []LeaveBalance
	for rows.Next() {
		var b LeaveBalance
		if err := rows.Scan(&b.ID, &b.UserID, &b.LeaveTypeID, &b.Year, &b.Balance, &b.Used, &b.CarryForward, &b.UpdatedAt); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// ProvisionBalances seeds a balance row for every active user and active
// leave type for the given year. Existing rows are left untouched.
func (s *Store) ProvisionBalances(ctx context.Context, year int) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (user_id, leave_type_id, year, balance, used, carry_forward)
    SELECT u.id, lt.id, $1, lt.default_days, 0, 0
    FROM users u CROSS JOIN leave_types lt
    WHERE u.is_active = true AND lt.is_active = true
    ON CONFLICT (user_id, leave_type_id, year) DO NOTHING
  `, year)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ReportBalances(ctx context.Context, year int) ([]BalanceReportRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT b.user_id, u.first_name || ' ' || u.last_name, lt.name, b.year,
           b.balance, b.used, b.carry_forward
    FROM leave_balances b
    JOIN users u ON u.id = b.user_id
    JOIN leave_types lt ON lt.id = b.leave_type_id
    WHERE b.year = $1
    ORDER BY u.last_name, u.first_name, lt.name
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []BalanceReportRow
	for rows.Next() {
		var row BalanceReportRow
		if err := rows.Scan(&row.UserID, &row.UserName, &row.LeaveType, &row.Year,
			&row.Balance, &row.Used, &row.CarryForward); err != nil {
			return nil, err
		}
		row.Available = row.Balance.Add(row.CarryForward).Sub(row.Used)
		report = append(report, row)
	}
	return report, rows.Err()
}

// --- transactional surface ---

func (t *txStore) LockUserRequests(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext('leave_requests'), hashtext($1))", userID)
	return err
}

func (t *txStore) HasConflict(ctx context.Context, userID string, start, end time.Time, excludeRequestID string) (bool, error) {
	var count int
	err := t.tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_requests
    WHERE user_id = $1
      AND status IN ($2, $3)
      AND start_date <= $4
      AND end_date >= $5
      AND ($6 = '' OR id::text <> $6)
  `, userID, StatusPending, StatusApproved, Midnight(end), Midnight(start), excludeRequestID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *txStore) BalanceForUpdate(ctx context.Context, userID, leaveTypeID string, year int, defaultDays decimal.Decimal) (LeaveBalance, error) {
	if _, err := t.tx.Exec(ctx, `
    INSERT INTO leave_balances (user_id, leave_type_id, year, balance, used, carry_forward)
    VALUES ($1,$2,$3,$4,0,0)
    ON CONFLICT (user_id, leave_type_id, year) DO NOTHING
  `, userID, leaveTypeID, year, defaultDays); err != nil {
		return LeaveBalance{}, err
	}

	var b LeaveBalance
	err := t.tx.QueryRow(ctx, `
    SELECT id, user_id, leave_type_id, year, balance, used, carry_forward, updated_at
    FROM leave_balances
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
    FOR UPDATE
  `, userID, leaveTypeID, year).Scan(&b.ID, &b.UserID, &b.LeaveTypeID, &b.Year, &b.Balance, &b.Used, &b.CarryForward, &b.UpdatedAt)
	return b, err
}

func (t *txStore) AddUsed(ctx context.Context, userID, leaveTypeID string, year int, delta decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, `
    UPDATE leave_balances
    SET used = GREATEST(used + $4, 0), updated_at = now()
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
  `, userID, leaveTypeID, year, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance for user %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (t *txStore) InsertRequest(ctx context.Context, request LeaveRequest) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
    INSERT INTO leave_requests (user_id, leave_type_id, start_date, end_date, request_type, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, request.UserID, request.LeaveTypeID, request.StartDate, request.EndDate,
		request.RequestType, request.Days, request.Reason, request.Status).Scan(&id)
	return id, err
}

func (t *txStore) RequestForUpdate(ctx context.Context, requestID string) (LeaveRequest, error) {
	req, err := scanRequest(t.tx.QueryRow(ctx,
		"SELECT "+requestColumns+" FROM leave_requests WHERE id = $1 FOR UPDATE", requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveRequest{}, fmt.Errorf("leave request %s: %w", requestID, ErrNotFound)
	}
	return req, err
}

func (t *txStore) SetRequestStatus(ctx context.Context, requestID, status, approverID, comments string, decidedAt time.Time) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $2, approver_id = $3, approver_comments = $4, approved_at = $5
    WHERE id = $1
  `, requestID, status, approverID, nullIfEmpty(comments), decidedAt)
	return err
}

func (t *txStore) SetRequestCancelled(ctx context.Context, requestID string) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE leave_requests SET status = $2 WHERE id = $1
  `, requestID, StatusCancelled)
	return err
}

func (t *txStore) InsertApproval(ctx context.Context, requestID, approverID, action, comments string) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO leave_approvals (leave_request_id, approver_id, action, comments, decided_at)
    VALUES ($1,$2,$3,$4,now())
  `, requestID, approverID, action, nullIfEmpty(comments))
	return err
}

func (t *txStore) BalancesForYear(ctx context.Context, leaveTypeID string, year int) ([]LeaveBalance, error) {
	rows, err := t.tx.Query(ctx, `
    SELECT id, user_id, leave_type_id, year, balance, used, carry_forward, updated_at
    FROM leave_balances
    WHERE leave_type_id = $1 AND year = $2
  `, leaveTypeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []LeaveBalance
	for rows.Next() {
		var b LeaveBalance
		if err := rows.Scan(&b.ID, &b.UserID, &b.LeaveTypeID, &b.Year, &b.Balance, &b.Used, &b.CarryForward, &b.UpdatedAt); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (t *txStore) UpsertCarryForward(ctx context.Context, userID, leaveTypeID string, year int, carry, defaultDays decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO leave_balances (user_id, leave_type_id, year, balance, used, carry_forward)
    VALUES ($1,$2,$3,$4,0,$5)
    ON CONFLICT (user_id, leave_type_id, year)
      DO UPDATE SET carry_forward = EXCLUDED.carry_forward, updated_at = now()
  `, userID, leaveTypeID, year, defaultDays, carry)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
