package operators

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const columns = `id, telegram_id, username, full_name, operator_id, active, created_at, updated_at`

func scan(row pgx.Row) (*Operator, error) {
	var o Operator
	if err := row.Scan(&o.ID, &o.TelegramID, &o.Username, &o.FullName, &o.OperatorID, &o.Active, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) GetByTelegramID(ctx context.Context, tgID int64) (*Operator, error) {
	o, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM operators WHERE telegram_id = $1`, tgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// Register создаёт или обновляет заявку оператора. Активность и привязку к MES не трогает.
func (r *Repo) Register(ctx context.Context, tg Telegram, fullName string) (*Operator, error) {
	return scan(r.pool.QueryRow(ctx, `
		INSERT INTO operators (telegram_id, username, full_name)
		VALUES ($1,$2,$3)
		ON CONFLICT (telegram_id)
		DO UPDATE SET
			username   = EXCLUDED.username,
			full_name  = EXCLUDED.full_name,
			updated_at = now()
		RETURNING `+columns, tg.ID, tg.Username, fullName))
}

// Activate привязывает оператора к id в MES и разрешает отправку расхода.
func (r *Repo) Activate(ctx context.Context, tgID, operatorID int64) (*Operator, error) {
	o, err := scan(r.pool.QueryRow(ctx, `
		UPDATE operators SET operator_id=$2, active=TRUE, updated_at=now()
		WHERE telegram_id=$1
		RETURNING `+columns, tgID, operatorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *Repo) Deactivate(ctx context.Context, tgID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE operators SET active=FALSE, updated_at=now() WHERE telegram_id=$1`, tgID)
	return err
}

func (r *Repo) ListPending(ctx context.Context) ([]Operator, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM operators WHERE active = FALSE ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Operator
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
