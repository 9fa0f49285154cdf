package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/agreement"
	"github.com/equity-capital-ledger/internal/domain/company"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/loannote"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/outbox"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/equity-capital-ledger/internal/domain/shareholder"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memory is an in-memory document store. Reads return copies so that a record
// only changes when it is written back.
type memory struct {
	companies    map[string]*company.Company
	accounts     map[uuid.UUID]*account.Account
	shareholders map[uuid.UUID]*shareholder.Shareholder
	agreements   map[uuid.UUID]agreement.Agreement
	notes        map[uuid.UUID]loannote.LoanNote
	accruals     map[uuid.UUID][]loannote.Accrual
	movements    map[uuid.UUID]movement.Movement
	movementSeq  []uuid.UUID
	postings     map[uuid.UUID]ledger.Posting
	outbox       []*outbox.Message
	rates        map[string]decimal.Decimal
}

func newMemory() *memory {
	return &memory{
		companies:    make(map[string]*company.Company),
		accounts:     make(map[uuid.UUID]*account.Account),
		shareholders: make(map[uuid.UUID]*shareholder.Shareholder),
		agreements:   make(map[uuid.UUID]agreement.Agreement),
		notes:        make(map[uuid.UUID]loannote.LoanNote),
		accruals:     make(map[uuid.UUID][]loannote.Accrual),
		movements:    make(map[uuid.UUID]movement.Movement),
		postings:     make(map[uuid.UUID]ledger.Posting),
		rates:        make(map[string]decimal.Decimal),
	}
}

func (m *memory) repositories() Repositories {
	return Repositories{
		Companies:    memCompanies{m},
		Accounts:     memAccounts{m},
		Shareholders: memShareholders{m},
		Agreements:   memAgreements{m},
		LoanNotes:    memLoanNotes{m},
		Movements:    memMovements{m},
		Postings:     memPostings{m},
		Outbox:       memOutbox{m},
	}
}

func (m *memory) outboxEvents(postingID uuid.UUID) []shared.OutboxEvent {
	var events []shared.OutboxEvent
	for _, msg := range m.outbox {
		if msg.PostingID == postingID {
			events = append(events, msg.Event)
		}
	}
	return events
}

// inlineTx runs the function without a real transaction
type inlineTx struct{}

func (inlineTx) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type memRates struct{ *memory }

func (r memRates) Rate(_ context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := r.rates[from+to]
	if !ok {
		return decimal.Zero, shared.ErrRateNotFound{From: from, To: to, Date: date}
	}
	return rate, nil
}

type memCompanies struct{ *memory }

func (r memCompanies) GetByName(_ context.Context, name string) (*company.Company, error) {
	c, ok := r.companies[name]
	if !ok {
		return nil, shared.ErrNotFound{Record: "company"}
	}
	return c, nil
}

type memAccounts struct{ *memory }

func (r memAccounts) Create(_ context.Context, a *account.Account) error {
	r.accounts[a.ID] = a
	return nil
}

func (r memAccounts) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	c := *a
	return &c, nil
}

func (r memAccounts) ListByCompany(_ context.Context, name string) ([]*account.Account, error) {
	var out []*account.Account
	for _, a := range r.accounts {
		if a.Company == name {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAccounts) WithTx(pgx.Tx) account.Repository { return r }

type memShareholders struct{ *memory }

func (r memShareholders) GetByID(_ context.Context, id uuid.UUID) (*shareholder.Shareholder, error) {
	h, ok := r.shareholders[id]
	if !ok {
		return nil, shared.ErrNotFound{Record: "shareholder", ID: id}
	}
	c := *h
	return &c, nil
}

func (r memShareholders) UpdateCLNAggregate(_ context.Context, id uuid.UUID, agg shareholder.CLNAggregate) error {
	h, ok := r.shareholders[id]
	if !ok {
		return shared.ErrNotFound{Record: "shareholder", ID: id}
	}
	h.HasConvertibleLoans = agg.HasConvertibleLoans
	h.TotalCLNPrincipal = agg.TotalPrincipal
	return nil
}

func (r memShareholders) WithTx(pgx.Tx) shareholder.Repository { return r }

type memAgreements struct{ *memory }

func (r memAgreements) Create(_ context.Context, a *agreement.Agreement) error {
	r.agreements[a.ID] = *a
	return nil
}

func (r memAgreements) GetByID(_ context.Context, id uuid.UUID) (*agreement.Agreement, error) {
	a, ok := r.agreements[id]
	if !ok {
		return nil, shared.ErrNotFound{Record: "agreement", ID: id}
	}
	return &a, nil
}

func (r memAgreements) Update(_ context.Context, a *agreement.Agreement) error {
	stored, ok := r.agreements[a.ID]
	if !ok || stored.Version != a.Version {
		return agreement.ErrConcurrentModification{AgreementID: a.ID}
	}
	a.Version++
	r.agreements[a.ID] = *a
	return nil
}

func (r memAgreements) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.agreements[id]; !ok {
		return shared.ErrNotFound{Record: "agreement", ID: id}
	}
	delete(r.agreements, id)
	return nil
}

func (r memAgreements) WithTx(pgx.Tx) agreement.Repository { return r }

type memLoanNotes struct{ *memory }

func (r memLoanNotes) load(id uuid.UUID) (*loannote.LoanNote, bool) {
	n, ok := r.notes[id]
	if !ok {
		return nil, false
	}
	n.Accruals = nil
	for _, a := range r.accruals[id] {
		a := a
		n.Accruals = append(n.Accruals, &a)
	}
	return &n, true
}

func (r memLoanNotes) Create(_ context.Context, n *loannote.LoanNote) error {
	stored := *n
	stored.Accruals = nil
	r.notes[n.ID] = stored
	return nil
}

func (r memLoanNotes) GetByID(_ context.Context, id uuid.UUID) (*loannote.LoanNote, error) {
	n, ok := r.load(id)
	if !ok {
		return nil, shared.ErrNotFound{Record: "loan note", ID: id}
	}
	return n, nil
}

func (r memLoanNotes) Update(_ context.Context, n *loannote.LoanNote) error {
	stored, ok := r.notes[n.ID]
	if !ok || stored.Version != n.Version {
		return loannote.ErrConcurrentModification{LoanNoteID: n.ID}
	}
	n.Version++
	next := *n
	next.Accruals = nil
	r.notes[n.ID] = next
	return nil
}

func (r memLoanNotes) AddAccrual(_ context.Context, a *loannote.Accrual) error {
	r.accruals[a.LoanNoteID] = append(r.accruals[a.LoanNoteID], *a)
	return nil
}

func (r memLoanNotes) ClearAccrualPosting(_ context.Context, accrualID uuid.UUID) error {
	for noteID, list := range r.accruals {
		for i := range list {
			if list[i].ID == accrualID {
				list[i].PostingID = nil
				r.accruals[noteID] = list
				return nil
			}
		}
	}
	return shared.ErrNotFound{Record: "accrual", ID: accrualID}
}

func (r memLoanNotes) ListByLender(_ context.Context, lenderID uuid.UUID) ([]*loannote.LoanNote, error) {
	var out []*loannote.LoanNote
	for id, n := range r.notes {
		if n.LenderID == lenderID {
			loaded, _ := r.load(id)
			out = append(out, loaded)
		}
	}
	return out, nil
}

func (r memLoanNotes) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.notes[id]; !ok {
		return shared.ErrNotFound{Record: "loan note", ID: id}
	}
	delete(r.notes, id)
	delete(r.accruals, id)
	return nil
}

func (r memLoanNotes) WithTx(pgx.Tx) loannote.Repository { return r }

type memMovements struct{ *memory }

func (r memMovements) Create(_ context.Context, m *movement.Movement) error {
	if m.Source != nil {
		for _, existing := range r.movements {
			if existing.Source != nil && *existing.Source == *m.Source && existing.DocStatus != shared.DocStatusCancelled {
				return shared.ErrAlreadyExists{Record: string(m.Source.Kind), ID: m.Source.ID,
					Existing: shared.DocumentKindMovement, ExistingID: existing.ID}
			}
		}
	}
	r.movements[m.ID] = *m
	r.movementSeq = append(r.movementSeq, m.ID)
	return nil
}

func (r memMovements) GetByID(_ context.Context, id uuid.UUID) (*movement.Movement, error) {
	m, ok := r.movements[id]
	if !ok {
		return nil, shared.ErrNotFound{Record: "movement", ID: id}
	}
	return &m, nil
}

func (r memMovements) Update(_ context.Context, m *movement.Movement) error {
	stored, ok := r.movements[m.ID]
	if !ok || stored.Version != m.Version {
		return movement.ErrConcurrentModification{MovementID: m.ID}
	}
	m.Version++
	r.movements[m.ID] = *m
	return nil
}

func (r memMovements) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.movements[id]; !ok {
		return shared.ErrNotFound{Record: "movement", ID: id}
	}
	delete(r.movements, id)
	return nil
}

func (r memMovements) ListBySource(_ context.Context, kind shared.DocumentKind, sourceID uuid.UUID) ([]*movement.Movement, error) {
	var out []*movement.Movement
	for _, id := range r.movementSeq {
		m, ok := r.movements[id]
		if ok && m.Source != nil && m.Source.Kind == kind && m.Source.ID == sourceID {
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r memMovements) ListForRegister(_ context.Context, f movement.RegisterFilter) ([]*movement.Movement, error) {
	var out []*movement.Movement
	for _, id := range r.movementSeq {
		m, ok := r.movements[id]
		if !ok || m.Company != f.Company || m.DocStatus != shared.DocStatusSubmitted || m.TransactionDate.After(f.AsOf) {
			continue
		}
		if f.ShareClass != "" && m.ShareClass != f.ShareClass {
			continue
		}
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TransactionDate.Before(out[j].TransactionDate) })
	return out, nil
}

func (r memMovements) LastCertificateNumbers(_ context.Context, name, shareClass string) (string, error) {
	for i := len(r.movementSeq) - 1; i >= 0; i-- {
		m, ok := r.movements[r.movementSeq[i]]
		if ok && m.Company == name && m.ShareClass == shareClass && m.CertificateNumbers != "" {
			return m.CertificateNumbers, nil
		}
	}
	return "", nil
}

func (r memMovements) WithTx(pgx.Tx) movement.Repository { return r }

type memPostings struct{ *memory }

func (r memPostings) Create(_ context.Context, p *ledger.Posting) error {
	r.postings[p.ID] = *p
	return nil
}

func (r memPostings) GetByID(_ context.Context, id uuid.UUID) (*ledger.Posting, error) {
	p, ok := r.postings[id]
	if !ok {
		return nil, shared.ErrNotFound{Record: "posting", ID: id}
	}
	return &p, nil
}

func (r memPostings) Update(_ context.Context, p *ledger.Posting) error {
	if _, ok := r.postings[p.ID]; !ok {
		return shared.ErrNotFound{Record: "posting", ID: p.ID}
	}
	r.postings[p.ID] = *p
	return nil
}

func (r memPostings) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.postings[id]; !ok {
		return shared.ErrNotFound{Record: "posting", ID: id}
	}
	delete(r.postings, id)
	return nil
}

func (r memPostings) ListBySource(_ context.Context, kind shared.DocumentKind, sourceID uuid.UUID) ([]*ledger.Posting, error) {
	var out []*ledger.Posting
	for _, p := range r.postings {
		if p.SourceKind == kind && p.SourceID == sourceID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memPostings) WithTx(pgx.Tx) ledger.Repository { return r }

type memOutbox struct{ *memory }

func (r memOutbox) Create(_ context.Context, msg *outbox.Message) error {
	msg.ID = int64(len(r.outbox) + 1)
	r.outbox = append(r.outbox, msg)
	return nil
}

func (r memOutbox) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	var out []*outbox.Message
	for _, msg := range r.outbox {
		if msg.Status == shared.OutboxStatusPending && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r memOutbox) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	r.outbox[id-1].Status = status
	return nil
}

func (r memOutbox) IncrementAttempts(_ context.Context, id int64) error {
	r.outbox[id-1].Attempts++
	return nil
}

func (r memOutbox) Delete(context.Context, int64) error { return nil }

func (r memOutbox) ListByPostingID(_ context.Context, postingID uuid.UUID) ([]*outbox.Message, error) {
	var out []*outbox.Message
	for _, msg := range r.outbox {
		if msg.PostingID == postingID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r memOutbox) WithTx(pgx.Tx) outbox.Repository { return r }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
