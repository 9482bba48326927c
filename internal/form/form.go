package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"ecoleta/internal/client"
	"ecoleta/internal/domain"
)

type Gateway interface {
	FetchItems(ctx context.Context) ([]domain.Item, error)
	SubmitPoint(ctx context.Context, s client.Submission) (domain.PointDetail, error)
}

type Regions interface {
	States(ctx context.Context) ([]string, error)
	Cities(ctx context.Context, uf string) ([]string, error)
}

var ErrNotEditing = errors.New("form is not accepting input")

// Load failures, reported separately so callers can decide which one is fatal.
var (
	ErrItemsUnavailable  = errors.New("item catalog unavailable")
	ErrStatesUnavailable = errors.New("state list unavailable")
)

// Form drives a State through loading, editing and submission. It is safe
// for concurrent use.
type Form struct {
	gw      Gateway
	regions Regions

	mu    sync.Mutex
	state State
	ufSeq uint64
}

func New(gw Gateway, regions Regions) *Form {
	return &Form{gw: gw, regions: regions}
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Load fetches the item catalog and the state list concurrently. Each result
// is applied as it arrives; one failing does not discard the other. The form
// ends in Editing either way.
func (f *Form) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.state.Phase != Idle {
		f.mu.Unlock()
		return fmt.Errorf("load: form is %s", f.state.Phase)
	}
	f.state.Phase = Populating
	f.mu.Unlock()

	var (
		g                errgroup.Group
		itemsErr, ufsErr error
	)
	g.Go(func() error {
		items, err := f.gw.FetchItems(ctx)
		if err != nil {
			itemsErr = fmt.Errorf("%w: %w", ErrItemsUnavailable, err)
			return nil
		}
		f.mu.Lock()
		f.state.Items = items
		f.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		ufs, err := f.regions.States(ctx)
		if err != nil {
			ufsErr = fmt.Errorf("%w: %w", ErrStatesUnavailable, err)
			return nil
		}
		f.mu.Lock()
		f.state.UFs = ufs
		f.mu.Unlock()
		return nil
	})
	_ = g.Wait()
	err := errors.Join(itemsErr, ufsErr)

	f.mu.Lock()
	f.state.Phase = Editing
	f.state.Err = err
	f.mu.Unlock()
	return err
}

// Apply runs a pure transition while the form is editable.
func (f *Form) Apply(t func(State) State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Phase != Editing {
		return ErrNotEditing
	}
	f.state = t(f.state)
	return nil
}

// SelectUF switches the state and fetches its cities. Cities arriving for a
// state that is no longer selected are dropped.
func (f *Form) SelectUF(ctx context.Context, uf string) error {
	f.mu.Lock()
	if f.state.Phase != Editing {
		f.mu.Unlock()
		return ErrNotEditing
	}
	f.state = f.state.SelectUF(uf)
	f.ufSeq++
	seq, selected := f.ufSeq, f.state.UF
	f.mu.Unlock()

	if selected == "" {
		return nil
	}
	cities, err := f.regions.Cities(ctx, selected)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.ufSeq {
		return nil
	}
	if err != nil {
		f.state.Err = err
		return fmt.Errorf("load cities of %s: %w", selected, err)
	}
	f.state.Cities = cities
	return nil
}

// Submit packages the state and sends it. On failure the form returns to
// Editing with every input intact.
func (f *Form) Submit(ctx context.Context) (domain.PointDetail, error) {
	f.mu.Lock()
	if f.state.Phase != Editing {
		f.mu.Unlock()
		return domain.PointDetail{}, ErrNotEditing
	}
	f.state.Phase = Submitting
	sub := f.state.Package()
	f.mu.Unlock()

	created, err := f.gw.SubmitPoint(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state.Phase = Editing
		f.state.Err = err
		return domain.PointDetail{}, err
	}
	f.state.Phase = Submitted
	f.state.Err = nil
	f.state.Created = &created
	return created, nil
}
