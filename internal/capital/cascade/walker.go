package cascade

import (
	"context"
	"errors"
	"log/slog"

	"github.com/equity-capital-ledger/internal/domain/shared"
)

// Walker runs cancel and delete cascades depth-first, children before parents.
// A failed child blocks its ancestors but not its independent siblings.
type Walker struct {
	graph  Graph
	logger *slog.Logger
}

func NewWalker(logger *slog.Logger, graph Graph) *Walker {
	return &Walker{
		graph:  graph,
		logger: logger.With("component", "cascade_walker"),
	}
}

type walk struct {
	report *Report
	done   map[Ref]bool
	active map[Ref]bool
}

func newWalk(root Ref) *walk {
	return &walk{
		report: &Report{Root: root},
		done:   make(map[Ref]bool),
		active: make(map[Ref]bool),
	}
}

// Cancel unwinds root and everything derived from it. For each forward link the child
// subtree is cancelled first, then the parent's reference to it is cleared; the parent
// itself is cancelled last. Cancelled records and cleared links are skipped, so a
// partially failed cascade can simply be run again.
func (w *Walker) Cancel(ctx context.Context, root Ref) (*Report, error) {
	node, err := w.graph.Load(ctx, root, Forward)
	if err != nil {
		return nil, err
	}
	if node.Status == shared.DocStatusDraft {
		return nil, shared.ErrPrecondition{Record: string(root.Kind), ID: root.ID, Reason: "draft records are deleted, not cancelled"}
	}

	wk := newWalk(root)
	w.cancel(ctx, root, wk)
	return wk.report, wk.report.Err()
}

// Delete removes a cancelled root and every record whose lineage leads back to it,
// deleting children before parents.
func (w *Walker) Delete(ctx context.Context, root Ref) (*Report, error) {
	node, err := w.graph.Load(ctx, root, Lineage)
	if err != nil {
		return nil, err
	}
	if node.Status != shared.DocStatusCancelled {
		return nil, shared.ErrPrecondition{Record: string(root.Kind), ID: root.ID, Reason: "only cancelled records can be deleted, is " + node.Status.String()}
	}

	wk := newWalk(root)
	w.delete(ctx, root, wk)
	return wk.report, wk.report.Err()
}

func (w *Walker) cancel(ctx context.Context, ref Ref, wk *walk) bool {
	if ok, seen := wk.done[ref]; seen {
		return ok
	}
	if wk.active[ref] {
		w.record(wk, Step{Action: ActionCancel, Ref: ref, Outcome: OutcomeFailed, Err: errCycle})
		return false
	}
	wk.active[ref] = true
	defer delete(wk.active, ref)

	node, err := w.graph.Load(ctx, ref, Forward)
	if err != nil {
		return w.finish(wk, ref, ActionCancel, err)
	}

	ok := true
	for _, child := range node.Links {
		if !w.cancel(ctx, child, wk) {
			ok = false
			continue
		}
		c := child
		if err := w.graph.Unlink(ctx, ref, child); err != nil {
			w.record(wk, Step{Action: ActionUnlink, Ref: ref, Child: &c, Outcome: OutcomeFailed, Err: err})
			ok = false
			continue
		}
		w.record(wk, Step{Action: ActionUnlink, Ref: ref, Child: &c, Outcome: OutcomeDone})
	}
	if !ok {
		w.record(wk, Step{Action: ActionCancel, Ref: ref, Outcome: OutcomeBlocked})
		wk.done[ref] = false
		return false
	}

	switch node.Status {
	case shared.DocStatusCancelled:
		w.record(wk, Step{Action: ActionCancel, Ref: ref, Outcome: OutcomeSkipped})
		wk.done[ref] = true
		return true
	case shared.DocStatusDraft:
		return w.finish(wk, ref, ActionCancel, shared.ErrPrecondition{Record: string(ref.Kind), ID: ref.ID, Reason: "linked record is still a draft"})
	}
	return w.finish(wk, ref, ActionCancel, w.graph.Cancel(ctx, ref))
}

func (w *Walker) delete(ctx context.Context, ref Ref, wk *walk) bool {
	if ok, seen := wk.done[ref]; seen {
		return ok
	}
	if wk.active[ref] {
		w.record(wk, Step{Action: ActionDelete, Ref: ref, Outcome: OutcomeFailed, Err: errCycle})
		return false
	}
	wk.active[ref] = true
	defer delete(wk.active, ref)

	node, err := w.graph.Load(ctx, ref, Lineage)
	if err != nil {
		return w.finish(wk, ref, ActionDelete, err)
	}
	if node.Status != shared.DocStatusCancelled {
		return w.finish(wk, ref, ActionDelete, shared.ErrPrecondition{Record: string(ref.Kind), ID: ref.ID, Reason: "record must be cancelled before it is deleted"})
	}

	ok := true
	for _, child := range node.Links {
		if !w.delete(ctx, child, wk) {
			ok = false
		}
	}
	if !ok {
		w.record(wk, Step{Action: ActionDelete, Ref: ref, Outcome: OutcomeBlocked})
		wk.done[ref] = false
		return false
	}
	return w.finish(wk, ref, ActionDelete, w.graph.Delete(ctx, ref))
}

// finish records the outcome of the final action on ref. A missing record counts as already handled.
func (w *Walker) finish(wk *walk, ref Ref, action Action, err error) bool {
	switch {
	case err == nil:
		w.record(wk, Step{Action: action, Ref: ref, Outcome: OutcomeDone})
		wk.done[ref] = true
	case errors.Is(err, shared.ErrNotFound{}):
		w.record(wk, Step{Action: action, Ref: ref, Outcome: OutcomeSkipped, Err: err})
		wk.done[ref] = true
	default:
		w.record(wk, Step{Action: action, Ref: ref, Outcome: OutcomeFailed, Err: err})
		wk.done[ref] = false
	}
	return wk.done[ref]
}

func (w *Walker) record(wk *walk, s Step) {
	wk.report.add(s)
	attrs := []any{"action", s.Action, "ref", s.Ref.String(), "outcome", s.Outcome}
	if s.Child != nil {
		attrs = append(attrs, "child", s.Child.String())
	}
	if s.Err != nil && s.Outcome == OutcomeFailed {
		w.logger.Error("Cascade step failed", append(attrs, "error", s.Err)...)
		return
	}
	w.logger.Info("Cascade step", attrs...)
}

var errCycle = errors.New("reference cycle detected")
