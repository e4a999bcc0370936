package draft

import (
	"context"
	"errors"
	"reflect"
	"time"

	"meetingassist/internal/services"
)

// ErrConflict is returned when a server refresh would overwrite unsaved edits.
var ErrConflict = services.ErrConflict

// ErrBusy is returned when a save is attempted while another is in flight.
var ErrBusy = errors.New("draft save already in progress")

// Saver persists a value to the server.
type Saver[T any] func(ctx context.Context, value T) error

// Draft tracks one editable copy of a server value. The zero value is an
// unloaded draft.
type Draft[T any] struct {
	baseline     T
	value        T
	dirty        bool
	loaded       bool
	loading      bool
	saving       bool
	lastLoadedAt time.Time

	clone func(T) T
	now   func() time.Time
}

// New returns an empty draft. clone deep-copies values that hold slices or maps;
// nil means values are copied by assignment.
func New[T any](clone func(T) T) *Draft[T] {
	return &Draft[T]{clone: clone}
}

func (d *Draft[T]) copyOf(v T) T {
	if d.clone == nil {
		return v
	}
	return d.clone(v)
}

func (d *Draft[T]) stamp() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now().UTC()
}

// BeginLoad marks the draft as waiting on a server fetch.
func (d *Draft[T]) BeginLoad() {
	d.loading = true
}

// FailLoad clears the loading flag after an unsuccessful fetch. Existing state
// is kept.
func (d *Draft[T]) FailLoad() {
	d.loading = false
}

// Load adopts value as both baseline and working copy.
func (d *Draft[T]) Load(value T) {
	d.baseline = d.copyOf(value)
	d.value = d.copyOf(value)
	d.dirty = false
	d.loaded = true
	d.loading = false
	d.lastLoadedAt = d.stamp()
}

// Edit applies patch to the working copy and marks the draft dirty. The flag is
// set even when the result equals the baseline; use Differs for the structural
// answer.
func (d *Draft[T]) Edit(patch func(T) T) {
	d.value = patch(d.copyOf(d.value))
	d.dirty = true
}

// Save sends the working copy through save. On success the working copy becomes
// the baseline. On failure nothing changes and the draft stays dirty.
func (d *Draft[T]) Save(ctx context.Context, save Saver[T]) error {
	pending, err := d.BeginSave()
	if err != nil {
		return err
	}
	err = save(ctx, d.copyOf(pending))
	d.FinishSave(pending, err)
	return err
}

// BeginSave marks the draft as saving and returns the value to send. It is the
// first half of Save for callers that must not hold a lock across the request.
func (d *Draft[T]) BeginSave() (T, error) {
	if d.saving {
		var zero T
		return zero, ErrBusy
	}
	d.saving = true
	return d.copyOf(d.value), nil
}

// FinishSave completes a save started with BeginSave. When err is nil, sent
// becomes the baseline. Edits made after BeginSave keep the draft dirty.
func (d *Draft[T]) FinishSave(sent T, err error) {
	d.saving = false
	if err != nil {
		return
	}
	edited := !reflect.DeepEqual(d.value, sent)
	d.baseline = d.copyOf(sent)
	if edited {
		return
	}
	d.value = d.copyOf(sent)
	d.dirty = false
}

// Discard restores the working copy to the baseline.
func (d *Draft[T]) Discard() {
	d.value = d.copyOf(d.baseline)
	d.dirty = false
}

// Reconcile merges a fresh server value. A clean draft adopts it. A dirty draft
// is left untouched; ErrConflict is returned unless the server value still
// equals the baseline the edits started from.
func (d *Draft[T]) Reconcile(server T) error {
	if d.dirty {
		if reflect.DeepEqual(d.baseline, server) {
			return nil
		}
		return ErrConflict
	}
	d.Load(server)
	return nil
}

// Force replaces the draft with server even when dirty. Callers use it only
// after the user confirmed discarding edits.
func (d *Draft[T]) Force(server T) {
	d.Load(server)
}

// Value returns a copy of the working value.
func (d *Draft[T]) Value() T { return d.copyOf(d.value) }

// Baseline returns a copy of the last server value.
func (d *Draft[T]) Baseline() T { return d.copyOf(d.baseline) }

// Dirty reports whether edits have been made since the last load or save.
func (d *Draft[T]) Dirty() bool { return d.dirty }

// Loaded reports whether a server value has been loaded.
func (d *Draft[T]) Loaded() bool { return d.loaded }

// Loading reports whether a fetch is in progress.
func (d *Draft[T]) Loading() bool { return d.loading }

// Saving reports whether a save is in progress.
func (d *Draft[T]) Saving() bool { return d.saving }

// LastLoadedAt is when the baseline was last replaced by a load.
func (d *Draft[T]) LastLoadedAt() time.Time { return d.lastLoadedAt }

// Differs reports whether the working copy differs structurally from the
// baseline.
func (d *Draft[T]) Differs() bool {
	return !reflect.DeepEqual(d.value, d.baseline)
}

// Restore rebuilds a draft from persisted fields.
func (d *Draft[T]) Restore(baseline, value T, dirty bool, loadedAt time.Time) {
	d.baseline = d.copyOf(baseline)
	d.value = d.copyOf(value)
	d.dirty = dirty
	d.loaded = true
	d.loading = false
	d.saving = false
	d.lastLoadedAt = loadedAt
}
