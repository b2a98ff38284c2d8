package allergy

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const cols = `id, paciente_cpf, agente, severidade`

func scan(row pgx.Row) (*Allergy, error) {
	var a Allergy
	if err := row.Scan(&a.ID, &a.PacienteCPF, &a.Agente, &a.Severidade); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Allergy) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO alergias (paciente_cpf, agente, severidade)
		VALUES ($1, $2, $3)
		RETURNING id`,
		a.PacienteCPF, a.Agente, a.Severidade).Scan(&a.ID)
	if err != nil {
		return db.Classify(fmt.Errorf("insert alergia: %w", err))
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Allergy, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM alergias WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id int64) (*Allergy, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM alergias WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, cpf string) ([]*Allergy, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM alergias WHERE paciente_cpf = $1 ORDER BY id`, cpf)
	if err != nil {
		return nil, fmt.Errorf("list alergias: %w", err)
	}
	defer rows.Close()

	items := []*Allergy{}
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, a *Allergy) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE alergias SET agente = $2, severidade = $3 WHERE id = $1`,
		a.ID, a.Agente, a.Severidade)
	if err != nil {
		return db.Classify(fmt.Errorf("update alergia: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM alergias WHERE id = $1`, id)
	if err != nil {
		return db.Classify(fmt.Errorf("delete alergia: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteByPatient(ctx context.Context, cpf string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM alergias WHERE paciente_cpf = $1`, cpf)
	if err != nil {
		return 0, fmt.Errorf("delete alergias of %s: %w", cpf, err)
	}
	return tag.RowsAffected(), nil
}
