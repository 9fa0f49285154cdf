package service

import (
	"context"
	"fmt"

	"github.com/equity-capital-ledger/internal/capital/cascade"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// graphStore exposes agreements, loan notes, movements and postings as a cascade graph.
// Every mutation commits in its own transaction.
type graphStore struct {
	svc *CapitalServiceImpl
}

var _ cascade.Graph = (*graphStore)(nil)

func (g *graphStore) Load(ctx context.Context, ref cascade.Ref, dir cascade.Direction) (*cascade.Node, error) {
	r := g.svc.repos
	switch ref.Kind {
	case shared.DocumentKindAgreement:
		a, err := r.Agreements.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		node := &cascade.Node{Ref: ref, Status: a.DocStatus}
		if dir == cascade.Lineage {
			return g.withLineage(ctx, node, false)
		}
		if a.MovementID != nil {
			node.Links = append(node.Links, movementRef(*a.MovementID))
		}
		return node, nil

	case shared.DocumentKindLoanNote:
		n, err := r.LoanNotes.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		node := &cascade.Node{Ref: ref, Status: n.DocStatus}
		if dir == cascade.Lineage {
			return g.withLineage(ctx, node, true)
		}
		if n.MovementID != nil {
			node.Links = append(node.Links, movementRef(*n.MovementID))
		}
		for _, id := range n.PostingLinks() {
			node.Links = append(node.Links, postingRef(id))
		}
		return node, nil

	case shared.DocumentKindMovement:
		m, err := r.Movements.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		node := &cascade.Node{Ref: ref, Status: m.DocStatus}
		if dir == cascade.Lineage {
			return g.withLineage(ctx, node, true)
		}
		if m.PostingID != nil {
			node.Links = append(node.Links, postingRef(*m.PostingID))
		}
		return node, nil

	case shared.DocumentKindPosting:
		p, err := r.Postings.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return &cascade.Node{Ref: ref, Status: p.DocStatus}, nil
	}
	return nil, shared.ErrPrecondition{Record: string(ref.Kind), ID: ref.ID, Reason: "unknown record kind"}
}

// withLineage adds every movement, and optionally every posting, whose source is the node
func (g *graphStore) withLineage(ctx context.Context, node *cascade.Node, postings bool) (*cascade.Node, error) {
	r := g.svc.repos
	if node.Ref.Kind != shared.DocumentKindMovement {
		movements, err := r.Movements.ListBySource(ctx, node.Ref.Kind, node.Ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list movements of %s: %w", node.Ref, err)
		}
		for _, m := range movements {
			node.Links = append(node.Links, movementRef(m.ID))
		}
	}
	if postings {
		ps, err := r.Postings.ListBySource(ctx, node.Ref.Kind, node.Ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list postings of %s: %w", node.Ref, err)
		}
		for _, p := range ps {
			node.Links = append(node.Links, postingRef(p.ID))
		}
	}
	return node, nil
}

func (g *graphStore) Cancel(ctx context.Context, ref cascade.Ref) error {
	return g.svc.inTx(ctx, func(r Repositories) error {
		switch ref.Kind {
		case shared.DocumentKindAgreement:
			a, err := r.Agreements.GetByID(ctx, ref.ID)
			if err != nil {
				return err
			}
			if err := a.Cancel(); err != nil {
				return err
			}
			return r.Agreements.Update(ctx, a)

		case shared.DocumentKindLoanNote:
			n, err := r.LoanNotes.GetByID(ctx, ref.ID)
			if err != nil {
				return err
			}
			if err := n.Cancel(); err != nil {
				return err
			}
			if err := r.LoanNotes.Update(ctx, n); err != nil {
				return err
			}
			return g.svc.refreshLender(ctx, r, n.LenderID)

		case shared.DocumentKindMovement:
			m, err := r.Movements.GetByID(ctx, ref.ID)
			if err != nil {
				return err
			}
			if err := m.Cancel(); err != nil {
				return err
			}
			if err := r.Movements.Update(ctx, m); err != nil {
				return err
			}
			if m.Source == nil {
				return nil
			}
			return g.clearMovement(ctx, r, cascade.Ref{Kind: m.Source.Kind, ID: m.Source.ID}, m.ID)

		case shared.DocumentKindPosting:
			p, err := r.Postings.GetByID(ctx, ref.ID)
			if err != nil {
				return err
			}
			if err := p.Cancel(); err != nil {
				return err
			}
			if err := r.Postings.Update(ctx, p); err != nil {
				return err
			}
			if err := g.svc.queue(ctx, r, shared.OutboxEventPostingCancelled, p); err != nil {
				return err
			}
			if p.SourceKind != shared.DocumentKindMovement {
				return nil
			}
			return g.clearPosting(ctx, r, cascade.Ref{Kind: p.SourceKind, ID: p.SourceID}, p.ID)
		}
		return shared.ErrPrecondition{Record: string(ref.Kind), ID: ref.ID, Reason: "unknown record kind"}
	})
}

func (g *graphStore) Unlink(ctx context.Context, parent, child cascade.Ref) error {
	return g.svc.inTx(ctx, func(r Repositories) error {
		switch child.Kind {
		case shared.DocumentKindMovement:
			return g.clearMovement(ctx, r, parent, child.ID)
		case shared.DocumentKindPosting:
			return g.clearPosting(ctx, r, parent, child.ID)
		}
		return shared.ErrPrecondition{Record: string(child.Kind), ID: child.ID, Reason: "records of this kind are never linked"}
	})
}

// clearMovement drops the owner's reference to movementID if it still holds it
func (g *graphStore) clearMovement(ctx context.Context, r Repositories, owner cascade.Ref, movementID uuid.UUID) error {
	switch owner.Kind {
	case shared.DocumentKindAgreement:
		a, err := r.Agreements.GetByID(ctx, owner.ID)
		if err != nil {
			return err
		}
		if a.MovementID == nil || *a.MovementID != movementID {
			return nil
		}
		a.ClearMovement()
		return r.Agreements.Update(ctx, a)

	case shared.DocumentKindLoanNote:
		n, err := r.LoanNotes.GetByID(ctx, owner.ID)
		if err != nil {
			return err
		}
		if n.MovementID == nil || *n.MovementID != movementID {
			return nil
		}
		n.ClearMovement()
		return r.LoanNotes.Update(ctx, n)
	}
	return nil
}

// clearPosting drops the owner's reference to postingID if it still holds it
func (g *graphStore) clearPosting(ctx context.Context, r Repositories, owner cascade.Ref, postingID uuid.UUID) error {
	switch owner.Kind {
	case shared.DocumentKindMovement:
		m, err := r.Movements.GetByID(ctx, owner.ID)
		if err != nil {
			return err
		}
		if m.PostingID == nil || *m.PostingID != postingID {
			return nil
		}
		m.ClearPosting()
		return r.Movements.Update(ctx, m)

	case shared.DocumentKindLoanNote:
		n, err := r.LoanNotes.GetByID(ctx, owner.ID)
		if err != nil {
			return err
		}
		if !holdsPosting(n.PostingLinks(), postingID) {
			return nil
		}
		if a := n.ClearPosting(postingID); a != nil {
			if err := r.LoanNotes.ClearAccrualPosting(ctx, a.ID); err != nil {
				return err
			}
		}
		return r.LoanNotes.Update(ctx, n)
	}
	return shared.ErrPrecondition{Record: string(owner.Kind), ID: owner.ID, Reason: "records of this kind hold no postings"}
}

func (g *graphStore) Delete(ctx context.Context, ref cascade.Ref) error {
	return g.svc.inTx(ctx, func(r Repositories) error {
		switch ref.Kind {
		case shared.DocumentKindAgreement:
			return r.Agreements.Delete(ctx, ref.ID)
		case shared.DocumentKindLoanNote:
			return r.LoanNotes.Delete(ctx, ref.ID)
		case shared.DocumentKindMovement:
			return r.Movements.Delete(ctx, ref.ID)
		case shared.DocumentKindPosting:
			p, err := r.Postings.GetByID(ctx, ref.ID)
			if err != nil {
				return err
			}
			if err := r.Postings.Delete(ctx, ref.ID); err != nil {
				return err
			}
			return g.svc.queue(ctx, r, shared.OutboxEventPostingDeleted, p)
		}
		return shared.ErrPrecondition{Record: string(ref.Kind), ID: ref.ID, Reason: "unknown record kind"}
	})
}

func holdsPosting(links []uuid.UUID, id uuid.UUID) bool {
	for _, l := range links {
		if l == id {
			return true
		}
	}
	return false
}

func movementRef(id uuid.UUID) cascade.Ref {
	return cascade.Ref{Kind: shared.DocumentKindMovement, ID: id}
}

func postingRef(id uuid.UUID) cascade.Ref {
	return cascade.Ref{Kind: shared.DocumentKindPosting, ID: id}
}
