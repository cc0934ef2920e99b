package usage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Save пишет отчёт и его позиции одной транзакцией.
func (r *Repo) Save(ctx context.Context, rep *Report) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO usage_reports
		(id, operator_id, telegram_id, workcenter_type, workcenter_id, order_id, order_name,
		 production_step_id, step_name, message)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, rep.ID, rep.OperatorID, rep.TelegramID, rep.WorkcenterType, rep.WorkcenterID,
		rep.OrderID, rep.OrderName, rep.ProductionStepID, rep.StepName, rep.Message,
	).Scan(&rep.CreatedAt); err != nil {
		return err
	}

	for _, it := range rep.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO usage_report_items (report_id, item_id, item_type, name, quantity, unit)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, rep.ID, it.ItemID, string(it.ItemType), it.Name, it.Quantity, it.Unit); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListByOperator последние отчёты оператора вместе с позициями.
func (r *Repo) ListByOperator(ctx context.Context, operatorID int64, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, operator_id, telegram_id, workcenter_type, workcenter_id, order_id, order_name,
		       production_step_id, step_name, message, created_at
		FROM usage_reports
		WHERE operator_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, operatorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	idx := map[uuid.UUID]int{}
	for rows.Next() {
		var rep Report
		if err := rows.Scan(&rep.ID, &rep.OperatorID, &rep.TelegramID, &rep.WorkcenterType, &rep.WorkcenterID,
			&rep.OrderID, &rep.OrderName, &rep.ProductionStepID, &rep.StepName, &rep.Message, &rep.CreatedAt); err != nil {
			return nil, err
		}
		idx[rep.ID] = len(out)
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(out))
	for _, rep := range out {
		ids = append(ids, rep.ID)
	}
	itemRows, err := r.pool.Query(ctx, `
		SELECT report_id, item_id, item_type, name, quantity, unit
		FROM usage_report_items
		WHERE report_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var reportID uuid.UUID
		var it ReportItem
		var typ string
		if err := itemRows.Scan(&reportID, &it.ItemID, &typ, &it.Name, &it.Quantity, &it.Unit); err != nil {
			return nil, err
		}
		it.ItemType = workflowItemType(typ)
		if i, ok := idx[reportID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out, itemRows.Err()
}
