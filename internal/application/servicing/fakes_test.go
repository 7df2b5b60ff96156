package servicing_test

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/servicing"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	domsvc "github.com/jhoicas/Cartera-api/internal/domain/servicing"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria para los casos de uso: un almacén con mapas por entidad y
// repositorios finos encima, más un TxRunner que ejecuta el callback directo
// sobre el almacén. No simulan aislamiento transaccional; los tests de
// concurrencia real viven en la capa de infraestructura.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	borrowers    map[string]*entity.Borrower
	loans        map[string]*entity.Loan
	installments map[string]*entity.Installment
	payments     map[string]*entity.Payment
	ledger       []*entity.CreditLedgerEntry
	audits       []*entity.AuditEvent
}

func newMemStore() *memStore {
	return &memStore{
		borrowers:    make(map[string]*entity.Borrower),
		loans:        make(map[string]*entity.Loan),
		installments: make(map[string]*entity.Installment),
		payments:     make(map[string]*entity.Payment),
	}
}

// auditKinds devuelve los tipos de evento registrados, en orden de llegada.
func (s *memStore) auditKinds() []string {
	kinds := make([]string, 0, len(s.audits))
	for _, e := range s.audits {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (s *memStore) hasAuditKind(kind string) bool {
	for _, e := range s.audits {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

// memTxRunner serializa los callbacks con un mutex: el equivalente en memoria
// de las transacciones con fila bloqueada que usa el barrido concurrente.
type memTxRunner struct {
	store *memStore
	mu    sync.Mutex
}

func (r *memTxRunner) Run(_ context.Context, fn func(
	repository.LoanRepository,
	repository.InstallmentRepository,
	repository.BorrowerRepository,
	repository.PaymentRepository,
	repository.CreditLedgerRepository,
	repository.AuditRepository,
) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.store
	return fn(
		&memLoanRepo{s}, &memInstallmentRepo{s}, &memBorrowerRepo{s},
		&memPaymentRepo{s}, &memLedgerRepo{s}, &memAuditRepo{s},
	)
}

// ── Repositorios ──────────────────────────────────────────────────────────────

type memLoanRepo struct{ s *memStore }

func (r *memLoanRepo) Create(loan *entity.Loan) error {
	r.s.loans[loan.ID] = loan
	return nil
}

func (r *memLoanRepo) GetByID(id string) (*entity.Loan, error) {
	return r.s.loans[id], nil
}

func (r *memLoanRepo) GetForUpdate(id string) (*entity.Loan, error) {
	return r.s.loans[id], nil
}

func (r *memLoanRepo) ListByBorrower(borrowerID string) ([]*entity.Loan, error) {
	var loans []*entity.Loan
	for _, loan := range r.s.loans {
		if loan.BorrowerID == borrowerID {
			loans = append(loans, loan)
		}
	}
	sort.Slice(loans, func(a, b int) bool { return loans[a].ID < loans[b].ID })
	return loans, nil
}

func (r *memLoanRepo) ListApproved() ([]*entity.Loan, error) {
	var loans []*entity.Loan
	for _, loan := range r.s.loans {
		if loan.Status == entity.LoanStatusApproved {
			loans = append(loans, loan)
		}
	}
	sort.Slice(loans, func(a, b int) bool { return loans[a].ID < loans[b].ID })
	return loans, nil
}

func (r *memLoanRepo) UpdateStatus(id, status string) error {
	if loan, ok := r.s.loans[id]; ok {
		loan.Status = status
	}
	return nil
}

type memInstallmentRepo struct{ s *memStore }

func (r *memInstallmentRepo) CreateBatch(installments []*entity.Installment) error {
	for _, inst := range installments {
		r.s.installments[inst.ID] = inst
	}
	return nil
}

func (r *memInstallmentRepo) Create(inst *entity.Installment) error {
	r.s.installments[inst.ID] = inst
	return nil
}

func (r *memInstallmentRepo) ListByLoan(loanID string) ([]*entity.Installment, error) {
	var out []*entity.Installment
	for _, inst := range r.s.installments {
		if inst.LoanID == loanID {
			out = append(out, inst)
		}
	}
	sortInstallments(out)
	return out, nil
}

func (r *memInstallmentRepo) ListByBorrower(borrowerID string) ([]*entity.Installment, error) {
	var out []*entity.Installment
	for _, inst := range r.s.installments {
		if loan, ok := r.s.loans[inst.LoanID]; ok && loan.BorrowerID == borrowerID {
			out = append(out, inst)
		}
	}
	sortInstallments(out)
	return out, nil
}

func (r *memInstallmentRepo) ListOrphans() ([]*entity.Installment, error) {
	var out []*entity.Installment
	for _, inst := range r.s.installments {
		if _, ok := r.s.loans[inst.LoanID]; !ok {
			out = append(out, inst)
		}
	}
	sortInstallments(out)
	return out, nil
}

func (r *memInstallmentRepo) Update(inst *entity.Installment) error {
	r.s.installments[inst.ID] = inst
	return nil
}

func (r *memInstallmentRepo) DeleteByLoan(loanID string) error {
	for id, inst := range r.s.installments {
		if inst.LoanID == loanID {
			delete(r.s.installments, id)
		}
	}
	return nil
}

func (r *memInstallmentRepo) Delete(id string) error {
	delete(r.s.installments, id)
	return nil
}

func sortInstallments(list []*entity.Installment) {
	sort.Slice(list, func(a, b int) bool {
		if list[a].Sequence == list[b].Sequence {
			return list[a].ID < list[b].ID
		}
		return list[a].Sequence < list[b].Sequence
	})
}

type memBorrowerRepo struct{ s *memStore }

func (r *memBorrowerRepo) Create(b *entity.Borrower) error {
	r.s.borrowers[b.ID] = b
	return nil
}

func (r *memBorrowerRepo) GetByID(id string) (*entity.Borrower, error) {
	return r.s.borrowers[id], nil
}

func (r *memBorrowerRepo) GetByNationalID(nationalID string) (*entity.Borrower, error) {
	for _, b := range r.s.borrowers {
		if b.NationalID == nationalID {
			return b, nil
		}
	}
	return nil, nil
}

func (r *memBorrowerRepo) GetForUpdate(id string) (*entity.Borrower, error) {
	return r.s.borrowers[id], nil
}

func (r *memBorrowerRepo) ListIDs() ([]string, error) {
	ids := make([]string, 0, len(r.s.borrowers))
	for id := range r.s.borrowers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memBorrowerRepo) UpdateStatus(id, status string) error {
	if b, ok := r.s.borrowers[id]; ok {
		b.Status = status
	}
	return nil
}

type memPaymentRepo struct{ s *memStore }

func (r *memPaymentRepo) Create(p *entity.Payment) error {
	r.s.payments[p.ID] = p
	return nil
}

func (r *memPaymentRepo) GetByReference(reference string) (*entity.Payment, error) {
	for _, p := range r.s.payments {
		if p.Reference == reference {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) ListUnmatched() ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.s.payments {
		if p.Status == entity.PaymentStatusUnmatched {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

type memLedgerRepo struct{ s *memStore }

func (r *memLedgerRepo) Append(entry *entity.CreditLedgerEntry) error {
	r.s.ledger = append(r.s.ledger, entry)
	return nil
}

func (r *memLedgerRepo) ListByBorrower(borrowerID string) ([]*entity.CreditLedgerEntry, error) {
	var out []*entity.CreditLedgerEntry
	for _, e := range r.s.ledger {
		if e.BorrowerID == borrowerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) Balance(borrowerID string) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, e := range r.s.ledger {
		if e.BorrowerID == borrowerID {
			balance = balance.Add(e.Amount)
		}
	}
	return balance, nil
}

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Append(event *entity.AuditEvent) error {
	r.s.audits = append(r.s.audits, event)
	return nil
}

func (r *memAuditRepo) ListByEntity(entityType, entityID string) ([]*entity.AuditEvent, error) {
	var out []*entity.AuditEvent
	for _, e := range r.s.audits {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ── Notifier ──────────────────────────────────────────────────────────────────

type recordingNotifier struct {
	mu              sync.Mutex
	generated       []string
	reconciliations []*dto.ReconciliationResult
	statusChanges   []string
	findings        []domsvc.Finding
}

var _ servicing.Notifier = (*recordingNotifier)(nil)

func (n *recordingNotifier) InstallmentsGenerated(loanID string, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.generated = append(n.generated, loanID)
}

func (n *recordingNotifier) ReconciliationCompleted(result *dto.ReconciliationResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reconciliations = append(n.reconciliations, result)
}

func (n *recordingNotifier) BorrowerStatusChanged(borrowerID, _, newStatus string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusChanges = append(n.statusChanges, borrowerID+":"+newStatus)
}

func (n *recordingNotifier) ConsistencyFinding(finding domsvc.Finding) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.findings = append(n.findings, finding)
}
