package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinik-sehat/clinic-records/internal/core/domain"
	"github.com/klinik-sehat/clinic-records/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubPatientRepo struct {
	byID   map[int64]*domain.Patient
	nextID int64
	err    error
}

func newStubPatientRepo() *stubPatientRepo {
	return &stubPatientRepo{byID: make(map[int64]*domain.Patient)}
}

func (r *stubPatientRepo) Create(_ context.Context, p *domain.Patient) error {
	if r.err != nil {
		return r.err
	}
	r.nextID++
	p.ID = r.nextID
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubPatientRepo) CreateMany(ctx context.Context, ps []*domain.Patient) error {
	for _, p := range ps {
		if err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubPatientRepo) FindByID(_ context.Context, id int64) (*domain.Patient, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPatientRepo) Update(_ context.Context, p *domain.Patient) error {
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ErrPatientNotFound
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubPatientRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrPatientNotFound
	}
	delete(r.byID, id)
	return nil
}

// List applies the same filters the real stores use.
func (r *stubPatientRepo) List(_ context.Context, f domain.PatientFilter) ([]*domain.Patient, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []*domain.Patient{}
	for _, p := range r.byID {
		if f.HasRange() && (p.VisitAt.Before(f.VisitFrom) || !p.VisitAt.Before(f.VisitTo)) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type recordingSink struct {
	events []domain.AuditEvent
}

func (s *recordingSink) Enqueue(e domain.AuditEvent) { s.events = append(s.events, e) }

// stubDeduper mimics the redis deduper: Reserve is atomic and a reserved key
// reads as in progress until Remember or Release.
type stubDeduper struct {
	mu         sync.Mutex
	seen       map[string]int
	pending    map[string]bool
	reserveErr error
}

func newStubDeduper() *stubDeduper {
	return &stubDeduper{seen: map[string]int{}, pending: map[string]bool{}}
}

func (d *stubDeduper) Reserve(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reserveErr != nil {
		return false, d.reserveErr
	}
	if _, done := d.seen[key]; done || d.pending[key] {
		return false, nil
	}
	d.pending[key] = true
	return true, nil
}

func (d *stubDeduper) Lookup(_ context.Context, key string) (int, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending[key] {
		return 0, false, domain.ErrImportInProgress
	}
	n, ok := d.seen[key]
	return n, ok, nil
}

func (d *stubDeduper) Remember(_ context.Context, key string, n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, key)
	d.seen[key] = n
	return nil
}

func (d *stubDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, key)
	return nil
}

// gatedRepo blocks CreateMany until release is closed, announcing entry on entered.
type gatedRepo struct {
	*stubPatientRepo
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepo) CreateMany(ctx context.Context, ps []*domain.Patient) error {
	r.entered <- struct{}{}
	<-r.release
	return r.stubPatientRepo.CreateMany(ctx, ps)
}

var fixedNow = time.Date(2024, 1, 25, 9, 0, 0, 0, time.UTC)

func newTestPatientService(repo *stubPatientRepo, sink AuditSink, dedup ImportDeduper) *PatientService {
	svc := NewPatientService(repo, sink, dedup, discardLogger)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func sampleInput() ports.PatientInput {
	return ports.PatientInput{
		Name:      "Siti Aminah",
		BirthDate: time.Date(1990, 7, 20, 0, 0, 0, 0, time.UTC),
		Diagnosis: "Migraine",
		Treatment: "Pain relief and rest",
		Doctor:    "Dr. Budi",
	}
}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

func TestPatientService_CreateUpdateDelete(t *testing.T) {
	repo := newStubPatientRepo()
	sink := &recordingSink{}
	svc := newTestPatientService(repo, sink, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, sampleInput(), "doctor")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, fixedNow, p.VisitAt)
	assert.Equal(t, fixedNow, p.CreatedAt)
	assert.Nil(t, p.UpdatedAt)

	in := sampleInput()
	in.Diagnosis = "Tension headache"
	updated, err := svc.Update(ctx, p.ID, in, "doctor")
	require.NoError(t, err)
	assert.Equal(t, "Tension headache", updated.Diagnosis)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, fixedNow, updated.VisitAt)

	require.NoError(t, svc.Delete(ctx, p.ID, "doctor"))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrPatientNotFound)

	require.Len(t, sink.events, 3)
	assert.Equal(t, domain.AuditCreate, sink.events[0].Action)
	assert.Equal(t, domain.AuditUpdate, sink.events[1].Action)
	assert.Equal(t, domain.AuditDelete, sink.events[2].Action)
	for _, e := range sink.events {
		assert.Equal(t, p.ID, e.PatientID)
		assert.Equal(t, "doctor", e.Actor)
		assert.NotEmpty(t, e.ID)
	}
}

func TestPatientService_MissingPatient(t *testing.T) {
	svc := newTestPatientService(newStubPatientRepo(), nil, nil)

	_, err := svc.Update(context.Background(), 42, sampleInput(), "doctor")
	assert.ErrorIs(t, err, domain.ErrPatientNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), 42, "doctor"), domain.ErrPatientNotFound)
}

func TestPatientService_CreateRepoError(t *testing.T) {
	repo := newStubPatientRepo()
	repo.err = errors.New("db down")
	sink := &recordingSink{}
	svc := newTestPatientService(repo, sink, nil)

	_, err := svc.Create(context.Background(), sampleInput(), "doctor")
	assert.Error(t, err)
	assert.Empty(t, sink.events)
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

func seedVisits(t *testing.T, repo *stubPatientRepo) {
	t.Helper()
	visits := []struct {
		name string
		at   time.Time
	}{
		{"Alice", time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)},
		{"Bob", time.Date(2024, 1, 25, 23, 30, 0, 0, time.UTC)},
		{"Charlie", time.Date(2024, 1, 26, 0, 0, 0, 0, time.UTC)},
		{"alina", time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)},
	}
	for _, v := range visits {
		require.NoError(t, repo.Create(context.Background(), &domain.Patient{Name: v.name, VisitAt: v.at}))
	}
}

func names(ps []*domain.Patient) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestPatientService_Dashboard(t *testing.T) {
	repo := newStubPatientRepo()
	seedVisits(t, repo)
	svc := newTestPatientService(repo, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ports.DashboardInput
		want []string
	}{
		{"no filter", ports.DashboardInput{}, []string{"Alice", "Bob", "Charlie", "alina"}},
		{"inclusive day range", ports.DashboardInput{FromDate: "2024-01-20", ToDate: "2024-01-25"}, []string{"Alice", "Bob"}},
		{"only from date ignored", ports.DashboardInput{FromDate: "2024-01-26"}, []string{"Alice", "Bob", "Charlie", "alina"}},
		{"malformed date ignored", ports.DashboardInput{FromDate: "yesterday", ToDate: "2024-01-25"}, []string{"Alice", "Bob", "Charlie", "alina"}},
		{"search is case-insensitive", ports.DashboardInput{Search: "AL"}, []string{"Alice", "alina"}},
		{"range and search", ports.DashboardInput{FromDate: "2024-01-01", ToDate: "2024-01-31", Search: "ali"}, []string{"Alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Dashboard(ctx, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(res.Patients))
			assert.Equal(t, len(tt.want), res.TotalPatients)
		})
	}
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

func TestPatientService_Import_DefaultsAndLenientDates(t *testing.T) {
	repo := newStubPatientRepo()
	sink := &recordingSink{}
	svc := newTestPatientService(repo, sink, nil)

	res, err := svc.Import(context.Background(), ports.ImportInput{
		Actor: "doctor",
		Records: []ports.ImportRecord{
			{"nama": "Alice", "tanggal_kunjungan": "2024-01-25T08:00:00"},
			{"nama": "Bob", "tanggal_kunjungan": "not-a-date", "diagnosis": "Flu", "tindakan": "Rest"},
			{"nama": "Charlie", "tanggal_lahir": "1985-03-15", "dokter": "Dr. External", "tanggal_kunjungan": "2024-01-25T14:00:00+07:00"},
			{"nama": ""},
			{"diagnosis": "no name"},
			{"nama": 12},
			{"nama": "Diana", "tanggal_lahir": "15/03/1985", "tanggal_kunjungan": 1706169600},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Imported)
	assert.False(t, res.Replayed)
	assert.Len(t, sink.events, 4)

	alice, _ := repo.FindByID(context.Background(), 1)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, time.Date(2024, 1, 25, 8, 0, 0, 0, time.UTC), alice.VisitAt)
	assert.Equal(t, time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC), alice.BirthDate)
	assert.Equal(t, "General Checkup", alice.Diagnosis)
	assert.Equal(t, "Consultation", alice.Treatment)
	assert.Equal(t, "doctor", alice.Doctor)

	bob, _ := repo.FindByID(context.Background(), 2)
	assert.Equal(t, fixedNow, bob.VisitAt)
	assert.Equal(t, "Flu", bob.Diagnosis)
	assert.Equal(t, "Rest", bob.Treatment)

	charlie, _ := repo.FindByID(context.Background(), 3)
	assert.Equal(t, time.Date(1985, 3, 15, 0, 0, 0, 0, time.UTC), charlie.BirthDate)
	assert.Equal(t, time.Date(2024, 1, 25, 7, 0, 0, 0, time.UTC), charlie.VisitAt)
	assert.Equal(t, "Dr. External", charlie.Doctor)

	diana, _ := repo.FindByID(context.Background(), 4)
	assert.Equal(t, time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC), diana.BirthDate)
	assert.Equal(t, fixedNow, diana.VisitAt)
}

func TestPatientService_Import_IdempotencyKey(t *testing.T) {
	repo := newStubPatientRepo()
	dedup := newStubDeduper()
	svc := newTestPatientService(repo, nil, dedup)
	in := ports.ImportInput{
		Actor:          "doctor",
		IdempotencyKey: "batch-1",
		Records:        []ports.ImportRecord{{"nama": "Alice"}, {"nama": "Bob"}},
	}

	first, err := svc.Import(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Imported)

	second, err := svc.Import(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, 2, second.Imported)
	assert.Len(t, repo.byID, 2)
}

func TestPatientService_Import_DedupFailureStillImports(t *testing.T) {
	repo := newStubPatientRepo()
	dedup := newStubDeduper()
	dedup.reserveErr = errors.New("redis down")
	svc := newTestPatientService(repo, nil, dedup)

	res, err := svc.Import(context.Background(), ports.ImportInput{
		Actor:          "doctor",
		IdempotencyKey: "batch-2",
		Records:        []ports.ImportRecord{{"nama": "Alice"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
}

func TestPatientService_Import_OverlappingSameKeyInsertsOnce(t *testing.T) {
	repo := &gatedRepo{
		stubPatientRepo: newStubPatientRepo(),
		entered:         make(chan struct{}, 1),
		release:         make(chan struct{}),
	}
	dedup := newStubDeduper()
	svc := NewPatientService(repo, nil, dedup, discardLogger)
	in := ports.ImportInput{
		Actor:          "doctor",
		IdempotencyKey: "k1",
		Records:        []ports.ImportRecord{{"nama": "Alice"}, {"nama": "Bob"}},
	}

	type outcome struct {
		res *ports.ImportResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := svc.Import(context.Background(), in)
		first <- outcome{res, err}
	}()
	<-repo.entered

	_, err := svc.Import(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrImportInProgress)

	close(repo.release)
	got := <-first
	require.NoError(t, got.err)
	assert.Equal(t, 2, got.res.Imported)

	replay, err := svc.Import(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, 2, replay.Imported)
	assert.Len(t, repo.byID, 2, "records for one idempotency key must be inserted once")
}

func TestPatientService_Import_FailureReleasesKey(t *testing.T) {
	repo := newStubPatientRepo()
	repo.err = errors.New("disk full")
	dedup := newStubDeduper()
	svc := newTestPatientService(repo, nil, dedup)
	in := ports.ImportInput{
		Actor:          "doctor",
		IdempotencyKey: "k2",
		Records:        []ports.ImportRecord{{"nama": "Alice"}},
	}

	_, err := svc.Import(context.Background(), in)
	require.Error(t, err)
	assert.False(t, dedup.pending["k2"], "failed import must release its reservation")

	repo.err = nil
	res, err := svc.Import(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, 1, res.Imported)
}

func TestPatientService_ImportDemo(t *testing.T) {
	repo := newStubPatientRepo()
	sink := &recordingSink{}
	svc := newTestPatientService(repo, sink, nil)

	n, err := svc.ImportDemo(context.Background(), "doctor")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"John Doe", "Jane Smith", "Bob Wilson"}, names(all))
	assert.Len(t, sink.events, 3)
}
