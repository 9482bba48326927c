package form_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"ecoleta/internal/client"
	"ecoleta/internal/config"
	"ecoleta/internal/domain"
	"ecoleta/internal/events"
	"ecoleta/internal/form"
	"ecoleta/internal/http/handlers"
	"ecoleta/internal/repos"
	"ecoleta/internal/storage"
)

type fakeGateway struct {
	mu        sync.Mutex
	items     []domain.Item
	itemsErr  error
	submitErr error
	submitted []client.Submission
}

func (g *fakeGateway) FetchItems(context.Context) ([]domain.Item, error) {
	return g.items, g.itemsErr
}

func (g *fakeGateway) SubmitPoint(_ context.Context, s client.Submission) (domain.PointDetail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitted = append(g.submitted, s)
	if g.submitErr != nil {
		return domain.PointDetail{}, g.submitErr
	}
	return domain.PointDetail{Point: domain.Point{ID: 1, Name: s.Name}}, nil
}

type fakeRegions struct {
	states    []string
	statesErr error
	cities    map[string][]string
	// gates block Cities for a state until closed
	gates map[string]chan struct{}
}

func (r *fakeRegions) States(context.Context) ([]string, error) { return r.states, r.statesErr }

func (r *fakeRegions) Cities(ctx context.Context, uf string) ([]string, error) {
	if g, ok := r.gates[uf]; ok {
		<-g
	}
	return r.cities[uf], nil
}

func newRegions() *fakeRegions {
	return &fakeRegions{
		states: []string{"RJ", "SP"},
		cities: map[string][]string{"RJ": {"Resende"}, "SP": {"Campinas"}},
		gates:  map[string]chan struct{}{},
	}
}

func TestLoadPopulatesBoth(t *testing.T) {
	gw := &fakeGateway{items: []domain.Item{{ID: 1, Title: "Lâmpadas"}}}
	f := form.New(gw, newRegions())

	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := f.State()
	if s.Phase != form.Editing || len(s.Items) != 1 || len(s.UFs) != 2 {
		t.Fatalf("unexpected state %+v", s)
	}
	if err := f.Load(context.Background()); err == nil {
		t.Fatal("second load should be refused")
	}
}

func TestLoadKeepsPartialResults(t *testing.T) {
	gw := &fakeGateway{itemsErr: errors.New("offline")}
	f := form.New(gw, newRegions())

	err := f.Load(context.Background())
	if err == nil {
		t.Fatal("expected load error")
	}
	if !errors.Is(err, form.ErrItemsUnavailable) || errors.Is(err, form.ErrStatesUnavailable) {
		t.Fatalf("want only the catalog failure reported, got %v", err)
	}
	s := f.State()
	if s.Phase != form.Editing || len(s.UFs) != 2 || s.Items != nil {
		t.Fatalf("state list should survive the catalog failure: %+v", s)
	}
}

func TestLoadReportsBothFailures(t *testing.T) {
	regions := newRegions()
	regions.statesErr = errors.New("ibge down")
	f := form.New(&fakeGateway{itemsErr: errors.New("offline")}, regions)

	err := f.Load(context.Background())
	if !errors.Is(err, form.ErrItemsUnavailable) || !errors.Is(err, form.ErrStatesUnavailable) {
		t.Fatalf("want both failures, got %v", err)
	}
	if f.State().Phase != form.Editing {
		t.Fatalf("want editing, got %s", f.State().Phase)
	}
}

func TestApplyRequiresEditing(t *testing.T) {
	f := form.New(&fakeGateway{}, newRegions())
	if err := f.Apply(func(s form.State) form.State { return s.ToggleItem(1) }); !errors.Is(err, form.ErrNotEditing) {
		t.Fatalf("want ErrNotEditing before load, got %v", err)
	}
}

func TestSelectUFDiscardsStaleCities(t *testing.T) {
	regions := newRegions()
	gate := make(chan struct{})
	regions.gates["SP"] = gate
	f := form.New(&fakeGateway{}, regions)
	ctx := context.Background()
	if err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- f.SelectUF(ctx, "SP") }()

	// wait until SP is selected and its fetch is in flight
	for f.State().UF != "SP" {
		time.Sleep(time.Millisecond)
	}
	if err := f.SelectUF(ctx, "RJ"); err != nil {
		t.Fatal(err)
	}
	if err := f.Apply(func(s form.State) form.State { return s.SelectCity("Resende") }); err != nil {
		t.Fatal(err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	s := f.State()
	if s.UF != "RJ" || s.City != "Resende" || !slices.Equal(s.Cities, []string{"Resende"}) {
		t.Fatalf("late SP cities leaked into RJ selection: %+v", s)
	}
}

func TestSelectPlaceholderFetchesNothing(t *testing.T) {
	regions := newRegions()
	f := form.New(&fakeGateway{}, regions)
	ctx := context.Background()
	_ = f.Load(ctx)
	if err := f.SelectUF(ctx, "RJ"); err != nil {
		t.Fatal(err)
	}
	if err := f.SelectUF(ctx, form.NoUF); err != nil {
		t.Fatal(err)
	}
	if s := f.State(); s.UF != "" || s.Cities != nil {
		t.Fatalf("placeholder should clear region: %+v", s)
	}
}

func TestSubmitFailureKeepsData(t *testing.T) {
	gw := &fakeGateway{submitErr: &client.NetworkError{Op: "submit point", Err: errors.New("connection refused")}}
	f := form.New(gw, newRegions())
	ctx := context.Background()
	_ = f.Load(ctx)
	_ = f.Apply(func(s form.State) form.State {
		return s.WithField("name", "Eco Center").ToggleItem(1).ClickMap(-22.47, -44.46)
	})

	if _, err := f.Submit(ctx); err == nil {
		t.Fatal("expected submit error")
	}
	s := f.State()
	if s.Phase != form.Editing || s.Name != "Eco Center" || !slices.Equal(s.SelectedItems, []int64{1}) {
		t.Fatalf("data lost after failed submit: %+v", s)
	}
	var netErr *client.NetworkError
	if !errors.As(s.Err, &netErr) {
		t.Fatalf("want network error recorded, got %v", s.Err)
	}

	// retry succeeds with the same data
	gw.submitErr = nil
	if _, err := f.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	if f.State().Phase != form.Submitted {
		t.Fatalf("want submitted, got %s", f.State().Phase)
	}
	if len(gw.submitted) != 2 || gw.submitted[1].Name != "Eco Center" {
		t.Fatalf("unexpected submissions %+v", gw.submitted)
	}
	if _, err := f.Submit(ctx); !errors.Is(err, form.ErrNotEditing) {
		t.Fatalf("submitted form must be terminal, got %v", err)
	}
}

// End to end against the real HTTP app.
func TestSubmitAgainstServer(t *testing.T) {
	cfg := config.Config{
		DBDriver: "sqlite", DBDSN: ":memory:", UploadDir: t.TempDir(),
		TemplateDir: "../../web/templates", BaseURL: "http://test",
		MaxUploadBytes: 1 << 20, CORSOrigins: "*", PostRateLimit: 100,
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	images, err := storage.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg, images, events.LogPublisher{}))
	srv := httptest.NewServer(adaptor.FiberApp(app))
	defer srv.Close()

	f := form.New(client.New(srv.URL), newRegions())
	ctx := context.Background()
	if err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.State().Items) != 6 {
		t.Fatalf("want 6 items from server, got %d", len(f.State().Items))
	}
	if err := f.SelectUF(ctx, "RJ"); err != nil {
		t.Fatal(err)
	}
	_ = f.Apply(func(s form.State) form.State {
		return s.WithField("name", "Eco Center").
			WithField("email", "a@b.com").
			WithField("whatsapp", "11999999999").
			SelectCity("Resende").
			ToggleItem(1).ToggleItem(3).
			ClickMap(-22.47, -44.46)
	})

	created, err := f.Submit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || len(created.Items) != 2 {
		t.Fatalf("unexpected created point %+v", created)
	}

	got, err := client.New(srv.URL).FetchPoint(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.City != "Resende" || got.UF != "RJ" || got.Latitude != -22.47 {
		t.Fatalf("server stored %+v", got)
	}
}

func TestSubmitRejectedByServer(t *testing.T) {
	cfg := config.Config{
		DBDriver: "sqlite", DBDSN: ":memory:", UploadDir: t.TempDir(),
		TemplateDir: "../../web/templates", BaseURL: "http://test",
		MaxUploadBytes: 1 << 20, CORSOrigins: "*", PostRateLimit: 100,
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	images, _ := storage.New(cfg)
	app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg, images, events.LogPublisher{}))
	srv := httptest.NewServer(adaptor.FiberApp(app))
	defer srv.Close()

	f := form.New(client.New(srv.URL), newRegions())
	ctx := context.Background()
	_ = f.Load(ctx)

	// nothing filled in: the server lists what is missing and the form stays editable
	_, err = f.Submit(ctx)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Fatalf("want 400 APIError, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range apiErr.Fields {
		fields[fe.Field] = true
	}
	for _, want := range []string{"name", "email", "whatsapp", "city", "uf", "items"} {
		if !fields[want] {
			t.Errorf("missing field %s not reported: %+v", want, apiErr.Fields)
		}
	}
	if f.State().Phase != form.Editing {
		t.Fatalf("want editing after rejection, got %s", f.State().Phase)
	}
}
