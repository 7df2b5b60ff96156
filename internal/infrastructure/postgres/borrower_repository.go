package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ repository.BorrowerRepository = (*BorrowerRepo)(nil)

// BorrowerRepo implementación de BorrowerRepository sobre PostgreSQL (usable con pool o tx).
type BorrowerRepo struct {
	q Querier
}

// NewBorrowerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBorrowerRepository(q Querier) *BorrowerRepo {
	return &BorrowerRepo{q: q}
}

const borrowerColumns = `id, national_id, name, status, created_at, updated_at`

// Create persiste el deudor; la cédula/NIT lleva constraint único.
func (r *BorrowerRepo) Create(b *entity.Borrower) error {
	query := `
		INSERT INTO borrowers (` + borrowerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		b.ID, b.NationalID, b.Name, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cédula %s: %w", b.NationalID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert borrower: %w", err)
	}
	return nil
}

// GetByID obtiene un deudor por ID. Devuelve nil sin error si no existe.
func (r *BorrowerRepo) GetByID(id string) (*entity.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM borrowers WHERE id = $1`
	return r.scanOne(query, id)
}

// GetByNationalID busca por cédula/NIT. Devuelve nil sin error si no existe.
func (r *BorrowerRepo) GetByNationalID(nationalID string) (*entity.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM borrowers WHERE national_id = $1`
	return r.scanOne(query, nationalID)
}

// GetForUpdate obtiene el deudor y bloquea la fila (SELECT FOR UPDATE).
// Este bloqueo serializa pagos y barrido de mora sobre el mismo deudor;
// deudores distintos avanzan en paralelo.
func (r *BorrowerRepo) GetForUpdate(id string) (*entity.Borrower, error) {
	query := `SELECT ` + borrowerColumns + ` FROM borrowers WHERE id = $1 FOR UPDATE`
	return r.scanOne(query, id)
}

// ListIDs devuelve los ids de todos los deudores (alcance del barrido).
func (r *BorrowerRepo) ListIDs() ([]string, error) {
	rows, err := r.q.Query(context.Background(), `SELECT id FROM borrowers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list borrower ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan borrower id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateStatus cambia el estado operativo del deudor.
func (r *BorrowerRepo) UpdateStatus(id, status string) error {
	query := `UPDATE borrowers SET status = $2, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, status)
	if err != nil {
		return fmt.Errorf("update borrower status: %w", err)
	}
	return nil
}

func (r *BorrowerRepo) scanOne(query string, args ...any) (*entity.Borrower, error) {
	var b entity.Borrower
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&b.ID, &b.NationalID, &b.Name, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get borrower: %w", err)
	}
	return &b, nil
}
