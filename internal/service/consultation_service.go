package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"credit-api/internal/apperror"
	"credit-api/internal/credit"
	"credit-api/internal/metrics"
	"credit-api/internal/model"
	"credit-api/internal/repository"
	"credit-api/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type ConsultationRequest struct {
	Name             string          `json:"name" binding:"required"`
	TaxID            string          `json:"tax_id" binding:"required"`
	Amount           decimal.Decimal `json:"amount" swaggertype:"number"`
	InstallmentCount int             `json:"installment_count"`
}

type ConsultationResponse struct {
	ID               uuid.UUID `json:"id" swaggertype:"string"`
	ClientTaxID      string    `json:"client_tax_id"`
	ClientCreated    bool      `json:"client_created"`
	Amount           string    `json:"amount"`
	TotalAmount      string    `json:"total_amount"`
	InterestRate     string    `json:"interest_rate"`
	InstallmentCount int       `json:"installment_count"`
	FirstInstallment string    `json:"first_installment"`
	Installments     []string  `json:"installments"`
	CreatedAt        time.Time `json:"created_at"`
}

type ClientResponse struct {
	ID                uuid.UUID `json:"id" swaggertype:"string"`
	TaxID             string    `json:"tax_id"`
	Name              string    `json:"name"`
	ConsultationCount int64     `json:"consultation_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// --- Interface ---

type ConsultationService interface {
	Consult(ctx context.Context, req ConsultationRequest) (ConsultationResponse, error)
	ListClients(ctx context.Context, p pagination.Params) ([]ClientResponse, int64, error)
	ListConsultations(ctx context.Context, taxID string, p pagination.Params) ([]ConsultationResponse, int64, error)
}

// ConsultationOptions carries optional behaviour switches
type ConsultationOptions struct {
	// DailyLimit rejects a repeat consultation by an existing client on the same calendar day
	DailyLimit bool
	// Now overrides the clock used by DailyLimit
	Now func() time.Time
}

// --- Implementation ---

type consultationService struct {
	clientRepo       repository.ClientRepository
	consultationRepo repository.ConsultationRepository
	events           EventPublisher
	log              logrus.FieldLogger
	opts             ConsultationOptions
}

func NewConsultationService(
	clientRepo repository.ClientRepository,
	consultationRepo repository.ConsultationRepository,
	events EventPublisher,
	log logrus.FieldLogger,
	opts ConsultationOptions,
) ConsultationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &consultationService{
		clientRepo:       clientRepo,
		consultationRepo: consultationRepo,
		events:           publisherOrNoop(events),
		log:              log,
		opts:             opts,
	}
}

// Consult computes the installment schedule for the request, registers the client on first
// contact and appends a consultation row.
//
// Client creation and consultation creation are two separate writes. When the second one fails
// the client row is kept and the caller gets a StoreUnavailable error.
func (s *consultationService) Consult(ctx context.Context, req ConsultationRequest) (ConsultationResponse, error) {
	resp, err := s.consult(ctx, req)
	if err != nil {
		metrics.RecordConsultation(apperror.KindOf(err).String())
		return ConsultationResponse{}, err
	}
	metrics.RecordConsultation("created")
	return resp, nil
}

func (s *consultationService) consult(ctx context.Context, req ConsultationRequest) (ConsultationResponse, error) {
	const op = "consult"

	name := strings.TrimSpace(req.Name)
	taxID := strings.TrimSpace(req.TaxID)
	if name == "" {
		return ConsultationResponse{}, apperror.InvalidArgument(op, "name is required")
	}
	if taxID == "" {
		return ConsultationResponse{}, apperror.InvalidArgument(op, "tax_id is required")
	}

	// Calculate before touching the store so invalid input never writes
	result, err := credit.Calculate(req.Amount, req.InstallmentCount)
	if err != nil {
		return ConsultationResponse{}, err
	}

	client, created, err := s.findOrCreateClient(ctx, name, taxID)
	if err != nil {
		return ConsultationResponse{}, err
	}

	if s.opts.DailyLimit && !created {
		now := s.opts.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		count, err := s.consultationRepo.CountByTaxIDSince(ctx, taxID, startOfDay)
		if err != nil {
			return ConsultationResponse{}, apperror.StoreUnavailable("count consultations", err)
		}
		if count > 0 {
			return ConsultationResponse{}, apperror.Conflict(op, "client %s already has a consultation today", taxID)
		}
	}

	consultation := &model.Consultation{
		ClientTaxID:      client.TaxID,
		Amount:           req.Amount,
		InstallmentCount: result.InstallmentCount,
		InterestRate:     result.InterestRate,
		TotalAmount:      result.TotalAmount,
		FirstInstallment: result.FirstInstallment,
		Installments:     model.Installments(result.Installments),
	}
	if err := s.consultationRepo.Create(ctx, consultation); err != nil {
		s.log.WithFields(logrus.Fields{
			"tax_id":         taxID,
			"client_created": created,
		}).WithError(err).Error("consultation write failed")
		return ConsultationResponse{}, apperror.StoreUnavailable("create consultation", err)
	}

	resp := toConsultationResponse(*consultation)
	resp.ClientCreated = created

	s.log.WithFields(logrus.Fields{
		"consultation_id":   consultation.ID.String(),
		"tax_id":            taxID,
		"client_created":    created,
		"installment_count": result.InstallmentCount,
		"total_amount":      resp.TotalAmount,
	}).Info("consultation created")
	s.events.Publish(EventConsultationCreated, resp)

	return resp, nil
}

// findOrCreateClient reuses an existing client unchanged, or inserts a new one.
// A concurrent insert for the same tax id is resolved by re-reading the winner.
func (s *consultationService) findOrCreateClient(ctx context.Context, name, taxID string) (*model.Client, bool, error) {
	client, err := s.clientRepo.FindByTaxID(ctx, taxID)
	if err == nil {
		return client, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperror.StoreUnavailable("find client", err)
	}

	client = &model.Client{TaxID: taxID, Name: name}
	created, err := s.clientRepo.CreateIfAbsent(ctx, client)
	if err != nil {
		return nil, false, apperror.StoreUnavailable("create client", err)
	}
	if created {
		metrics.RecordClientCreated()
		return client, true, nil
	}

	s.log.WithField("tax_id", taxID).Warn("client created concurrently, reusing existing row")
	client, err = s.clientRepo.FindByTaxID(ctx, taxID)
	if err != nil {
		return nil, false, apperror.StoreUnavailable("find client", err)
	}
	return client, false, nil
}

func (s *consultationService) ListClients(ctx context.Context, p pagination.Params) ([]ClientResponse, int64, error) {
	clients, total, err := s.clientRepo.List(ctx, p)
	if err != nil {
		return nil, 0, apperror.StoreUnavailable("list clients", err)
	}

	res := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		res = append(res, ClientResponse{
			ID:                c.ID,
			TaxID:             c.TaxID,
			Name:              c.Name,
			ConsultationCount: c.ConsultationCount,
			CreatedAt:         c.CreatedAt,
		})
	}
	return res, total, nil
}

func (s *consultationService) ListConsultations(ctx context.Context, taxID string, p pagination.Params) ([]ConsultationResponse, int64, error) {
	const op = "list consultations"

	if _, err := s.clientRepo.FindByTaxID(ctx, taxID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, apperror.NotFound(op, "client %s not found", taxID)
		}
		return nil, 0, apperror.StoreUnavailable("find client", err)
	}

	consultations, total, err := s.consultationRepo.ListByTaxID(ctx, taxID, p)
	if err != nil {
		return nil, 0, apperror.StoreUnavailable(op, err)
	}

	res := make([]ConsultationResponse, 0, len(consultations))
	for _, c := range consultations {
		res = append(res, toConsultationResponse(c))
	}
	return res, total, nil
}

// --- Response mappers ---

func toConsultationResponse(c model.Consultation) ConsultationResponse {
	installments := make([]string, 0, len(c.Installments))
	for _, v := range c.Installments {
		installments = append(installments, v.StringFixed(2))
	}

	return ConsultationResponse{
		ID:               c.ID,
		ClientTaxID:      c.ClientTaxID,
		Amount:           c.Amount.StringFixed(2),
		TotalAmount:      c.TotalAmount.StringFixed(2),
		InterestRate:     c.InterestRate.String(),
		InstallmentCount: c.InstallmentCount,
		FirstInstallment: c.FirstInstallment.StringFixed(2),
		Installments:     installments,
		CreatedAt:        c.CreatedAt,
	}
}
