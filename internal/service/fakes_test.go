package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"credit-api/internal/model"
	"credit-api/internal/repository"
	"credit-api/pkg/pagination"

	"github.com/google/uuid"
)

type fakeClientRepo struct {
	mu      sync.Mutex
	clients map[string]*model.Client

	findErr   error
	createErr error
	// raceWinner is inserted right before CreateIfAbsent runs, as if another request won
	raceWinner *model.Client

	findCalls   int
	createCalls int
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: map[string]*model.Client{}}
}

func (r *fakeClientRepo) FindByTaxID(_ context.Context, taxID string) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	c, ok := r.clients[taxID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) CreateIfAbsent(_ context.Context, client *model.Client) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return false, r.createErr
	}
	if r.raceWinner != nil {
		r.clients[r.raceWinner.TaxID] = r.raceWinner
		r.raceWinner = nil
	}
	if _, ok := r.clients[client.TaxID]; ok {
		return false, nil
	}
	client.ID = uuid.New()
	client.CreatedAt = time.Now()
	cp := *client
	r.clients[client.TaxID] = &cp
	return true, nil
}

func (r *fakeClientRepo) List(_ context.Context, p pagination.Params) ([]repository.ClientSummary, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.ClientSummary, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, repository.ClientSummary{Client: *c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaxID < out[j].TaxID })
	return paginate(out, p), int64(len(out)), nil
}

type fakeConsultationRepo struct {
	mu            sync.Mutex
	consultations []model.Consultation

	createErr error
	countErr  error
}

func (r *fakeConsultationRepo) Create(_ context.Context, c *model.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	c.ID = uuid.New()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.consultations = append(r.consultations, *c)
	return nil
}

func (r *fakeConsultationRepo) countFor(taxID string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.consultations {
		if c.ClientTaxID == taxID {
			n++
		}
	}
	return n
}

func (r *fakeConsultationRepo) CountByTaxIDSince(_ context.Context, taxID string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	var n int64
	for _, c := range r.consultations {
		if c.ClientTaxID == taxID && !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeConsultationRepo) ListByTaxID(_ context.Context, taxID string, p pagination.Params) ([]model.Consultation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Consultation
	for i := len(r.consultations) - 1; i >= 0; i-- {
		if r.consultations[i].ClientTaxID == taxID {
			out = append(out, r.consultations[i])
		}
	}
	return paginate(out, p), int64(len(out)), nil
}

type fakeProductRepo struct {
	products map[string]model.Product

	listErr   error
	deleteErr error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]model.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	r.products[p.Code] = *p
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.Code] = *p
	return nil
}

func (r *fakeProductRepo) DeleteByCode(_ context.Context, code string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.products, code)
	return nil
}

func (r *fakeProductRepo) FindByCodeForUpdate(_ context.Context, code string) (*model.Product, error) {
	p, ok := r.products[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) List(_ context.Context, p pagination.Params) ([]model.Product, int64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return paginate(out, p), int64(len(out)), nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
	logErr  error
}

func (r *fakeAuditRepo) Log(_ context.Context, e *model.AuditLog) error {
	if r.logErr != nil {
		return r.logErr
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, p pagination.Params) ([]model.AuditLog, int64, error) {
	return paginate(r.entries, p), int64(len(r.entries)), nil
}

// fakeTx snapshots the product map and restores it when fn fails
type fakeTx struct {
	products *fakeProductRepo
}

func (t fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	snapshot := make(map[string]model.Product, len(t.products.products))
	for k, v := range t.products.products {
		snapshot[k] = v
	}
	if err := fn(ctx); err != nil {
		t.products.products = snapshot
		return err
	}
	return nil
}

type publishedEvent struct {
	name string
	data interface{}
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.events = append(p.events, publishedEvent{name: event, data: data})
}

func paginate[T any](items []T, p pagination.Params) []T {
	if p.Limit < 1 {
		return items
	}
	start := p.Offset
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
