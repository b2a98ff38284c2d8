package surgery

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

const cols = `id, paciente_cpf, nome, data, observacoes`

func scan(row pgx.Row) (*Surgery, error) {
	var s Surgery
	if err := row.Scan(&s.ID, &s.PacienteCPF, &s.Nome, &s.Data, &s.Observacoes); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Surgery) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO cirurgias (paciente_cpf, nome, data, observacoes)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		s.PacienteCPF, s.Nome, s.Data, s.Observacoes).Scan(&s.ID)
	if err != nil {
		return db.Classify(fmt.Errorf("insert cirurgia: %w", err))
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Surgery, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM cirurgias WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id int64) (*Surgery, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM cirurgias WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) ListByPatient(ctx context.Context, cpf string) ([]*Surgery, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM cirurgias WHERE paciente_cpf = $1 ORDER BY id`, cpf)
	if err != nil {
		return nil, fmt.Errorf("list cirurgias: %w", err)
	}
	defer rows.Close()

	items := []*Surgery{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, s *Surgery) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE cirurgias SET nome = $2, data = $3, observacoes = $4
		WHERE id = $1`,
		s.ID, s.Nome, s.Data, s.Observacoes)
	if err != nil {
		return db.Classify(fmt.Errorf("update cirurgia: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM cirurgias WHERE id = $1`, id)
	if err != nil {
		return db.Classify(fmt.Errorf("delete cirurgia: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteByPatient(ctx context.Context, cpf string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM cirurgias WHERE paciente_cpf = $1`, cpf)
	if err != nil {
		return 0, fmt.Errorf("delete cirurgias of %s: %w", cpf, err)
	}
	return tag.RowsAffected(), nil
}
