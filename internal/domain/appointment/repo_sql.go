package appointment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinica/clinica/internal/platform/sqldb"
)

type repoSQL struct{ db *sql.DB }

func NewRepoSQL(db *sql.DB) Repository {
	return &repoSQL{db: db}
}

func (r *repoSQL) conn(ctx context.Context) sqldb.DBTX {
	return sqldb.From(ctx, r.db)
}

const cols = `id, cpf_paciente, dia, hora, descricao, estado, observacoes, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(row scanner) (*Appointment, error) {
	var (
		a                   Appointment
		estado, observacoes sql.NullString
	)
	err := row.Scan(&a.ID, &a.CPFPaciente, &a.Dia, &a.Hora, &a.Descricao, &estado, &observacoes, &a.CreatedAt)
	if err != nil {
		if sqldb.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Estado = sqldb.StringPtr(estado)
	a.Observacoes = sqldb.StringPtr(observacoes)
	return &a, nil
}

func (r *repoSQL) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO consultas (cpf_paciente, dia, hora, descricao, estado, observacoes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		a.CPFPaciente, a.Dia, a.Hora, a.Descricao, sqldb.NullString(a.Estado), sqldb.NullString(a.Observacoes),
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return sqldb.Classify(fmt.Errorf("insert consulta: %w", err))
	}
	return nil
}

func (r *repoSQL) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return scan(r.conn(ctx).QueryRowContext(ctx, `SELECT `+cols+` FROM consultas WHERE id = $1`, id))
}

func (r *repoSQL) GetForUpdate(ctx context.Context, id int64) (*Appointment, error) {
	return scan(r.conn(ctx).QueryRowContext(ctx, `SELECT `+cols+` FROM consultas WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoSQL) ListByPatient(ctx context.Context, cpf string) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+cols+` FROM consultas WHERE cpf_paciente = $1 ORDER BY dia, hora, id`, cpf)
}

func (r *repoSQL) List(ctx context.Context, dia string) ([]*Appointment, error) {
	if dia == "" {
		return r.list(ctx, `SELECT `+cols+` FROM consultas ORDER BY dia, hora, id`)
	}
	return r.list(ctx, `SELECT `+cols+` FROM consultas WHERE dia = $1 ORDER BY hora, id`, dia)
}

func (r *repoSQL) list(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consultas: %w", err)
	}
	defer rows.Close()

	out := []*Appointment{}
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consulta: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoSQL) Update(ctx context.Context, a *Appointment) error {
	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE consultas
		SET cpf_paciente = $2, dia = $3, hora = $4, descricao = $5, estado = $6, observacoes = $7
		WHERE id = $1`,
		a.ID, a.CPFPaciente, a.Dia, a.Hora, a.Descricao, sqldb.NullString(a.Estado), sqldb.NullString(a.Observacoes))
	if err != nil {
		return sqldb.Classify(fmt.Errorf("update consulta: %w", err))
	}
	return affected(res)
}

func (r *repoSQL) Delete(ctx context.Context, id int64) error {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM consultas WHERE id = $1`, id)
	if err != nil {
		return sqldb.Classify(fmt.Errorf("delete consulta: %w", err))
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
