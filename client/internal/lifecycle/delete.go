package lifecycle

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

const (
	deleteOpen int32 = iota
	deleteCancelled
	deleteConfirmed
)

// DeleteRequest is the confirmation step of a delete. Exactly one of
// Confirm or Cancel takes effect.
type DeleteRequest struct {
	o     *Orchestrator
	id    string
	state atomic.Int32
}

// RequestDelete starts deleting the entry with id.
func (o *Orchestrator) RequestDelete(id string) (*DeleteRequest, error) {
	if _, ok := o.store.Get(id); !ok {
		return nil, ErrNotFound
	}
	return &DeleteRequest{o: o, id: id}, nil
}

// EntryID is the entry the request targets.
func (d *DeleteRequest) EntryID() string { return d.id }

// Cancel abandons the request.
func (d *DeleteRequest) Cancel() {
	d.state.CompareAndSwap(deleteOpen, deleteCancelled)
}

// Confirm deletes the entry remotely and then locally. A failed delete
// keeps the entry. Calling Confirm again, or after Cancel, does nothing.
// An analysis still running for the entry is not interrupted.
func (d *DeleteRequest) Confirm(ctx context.Context) error {
	if !d.state.CompareAndSwap(deleteOpen, deleteConfirmed) {
		return nil
	}
	o := d.o
	res := o.gw.DeleteEntry(ctx, o.userID, d.id)
	if !res.Success {
		perr := persistenceError("delete entry", res)
		log.Warn().Str("entry_id", d.id).Int("status", res.StatusCode).Str("error", res.Error).Msg("delete failed")
		o.notifier.Alert(MsgDeleteFailed)
		return perr
	}
	o.store.Remove(d.id)
	o.observe(d.id, PhaseDeleted, nil)
	return nil
}
