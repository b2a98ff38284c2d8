package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinica/clinica/internal/platform/apperr"
	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/pagination"
)

// ErrDuplicate is returned when a patient with the same CPF already exists.
var ErrDuplicate = apperr.Conflict("CPF já cadastrado", nil)

const primaryKey = "pacientes_pkey"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const cols = `cpf, nome_completo, data_nascimento, telefone, email, responsavel_cpf, created_at`

func scanInto(row pgx.Row, p *Patient, extra ...interface{}) error {
	dest := append([]interface{}{
		&p.CPF, &p.NomeCompleto, &p.DataNascimento, &p.Telefone, &p.Email, &p.ResponsavelCPF, &p.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if db.IsNoRows(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func scan(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := scanInto(row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pacientes (cpf, nome_completo, data_nascimento, telefone, email, responsavel_cpf)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		p.CPF, p.NomeCompleto, p.DataNascimento, p.Telefone, p.Email, p.ResponsavelCPF,
	).Scan(&p.CreatedAt)
	if err != nil {
		if db.ConstraintName(err) == primaryKey {
			return apperr.Conflict(ErrDuplicate.Message, err)
		}
		return db.Classify(fmt.Errorf("insert paciente: %w", err))
	}
	return nil
}

func (r *repoPG) Exists(ctx context.Context, cpf string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pacientes WHERE cpf = $1)`, cpf).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("paciente exists: %w", err)
	}
	return ok, nil
}

func (r *repoPG) Get(ctx context.Context, cpf string) (*Patient, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM pacientes WHERE cpf = $1`, cpf))
}

func (r *repoPG) GetForUpdate(ctx context.Context, cpf string) (*Patient, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM pacientes WHERE cpf = $1 FOR UPDATE`, cpf))
}

// Each collection is aggregated by a correlated subquery so the whole
// aggregate comes back as a single row.
const detailQuery = `
	SELECT ` + cols + `,
		COALESCE((SELECT json_agg(c ORDER BY c.id) FROM cirurgias c WHERE c.paciente_cpf = p.cpf), '[]'::json),
		COALESCE((SELECT json_agg(m ORDER BY m.id) FROM medicacoes m WHERE m.paciente_cpf = p.cpf), '[]'::json),
		COALESCE((SELECT json_agg(a ORDER BY a.id) FROM alergias a WHERE a.paciente_cpf = p.cpf), '[]'::json)
	FROM pacientes p
	WHERE p.cpf = $1`

func (r *repoPG) GetDetail(ctx context.Context, cpf string) (*Detail, error) {
	var d Detail
	err := scanInto(r.conn(ctx).QueryRow(ctx, detailQuery, cpf), &d.Patient, &d.Cirurgias, &d.Medicacoes, &d.Alergias)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *repoPG) List(ctx context.Context, query string, page pagination.Params) ([]*Summary, error) {
	sql := `SELECT cpf, nome_completo, data_nascimento FROM pacientes`
	var args []interface{}
	if query != "" {
		args = append(args, "%"+likeEscaper.Replace(query)+"%")
		sql += ` WHERE nome_completo ILIKE $1 OR cpf ILIKE $1`
	}
	sql += ` ORDER BY nome_completo, cpf` + page.SQL()
	return r.summaries(ctx, sql, args...)
}

func (r *repoPG) ListDependents(ctx context.Context, guardian string) ([]*Summary, error) {
	return r.summaries(ctx, `
		SELECT cpf, nome_completo, data_nascimento FROM pacientes
		WHERE responsavel_cpf = $1
		ORDER BY nome_completo, cpf`, guardian)
}

func (r *repoPG) summaries(ctx context.Context, sql string, args ...interface{}) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list pacientes: %w", err)
	}
	defer rows.Close()

	out := []*Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.CPF, &s.NomeCompleto, &s.DataNascimento); err != nil {
			return nil, fmt.Errorf("scan paciente: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE pacientes
		SET nome_completo = $2, data_nascimento = $3, telefone = $4, email = $5, responsavel_cpf = $6
		WHERE cpf = $1`,
		p.CPF, p.NomeCompleto, p.DataNascimento, p.Telefone, p.Email, p.ResponsavelCPF)
	if err != nil {
		return db.Classify(fmt.Errorf("update paciente: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ClearGuardian(ctx context.Context, guardian string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE pacientes SET responsavel_cpf = NULL WHERE responsavel_cpf = $1`, guardian)
	if err != nil {
		return 0, fmt.Errorf("clear responsavel %s: %w", guardian, err)
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) Delete(ctx context.Context, cpf string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM pacientes WHERE cpf = $1`, cpf)
	if err != nil {
		return db.Classify(fmt.Errorf("delete paciente: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
