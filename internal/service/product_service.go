package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"credit-api/internal/apperror"
	"credit-api/internal/metrics"
	"credit-api/internal/model"
	"credit-api/internal/repository"
	"credit-api/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DTOs
type ProductRequest struct {
	Code        string              `json:"code" binding:"required"`
	Description string              `json:"description" binding:"required"`
	// Price is nullable so a missing or null value can be told apart from zero
	Price       decimal.NullDecimal `json:"price" swaggertype:"number"`
}

type ProductResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Created     bool      `json:"created"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductService interface {
	// Save creates the product when its code is new and updates it otherwise
	Save(ctx context.Context, actor string, req ProductRequest) (ProductResponse, error)
	// Update changes an existing product and fails with NotFound for unknown codes
	Update(ctx context.Context, actor string, req ProductRequest) (ProductResponse, error)
	List(ctx context.Context, p pagination.Params) ([]ProductResponse, int64, error)
	// Delete removes the product and returns the removed row
	Delete(ctx context.Context, actor string, code string) (ProductResponse, error)
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	events      EventPublisher
	log         logrus.FieldLogger
}

func NewProductService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
	log logrus.FieldLogger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		events:      publisherOrNoop(events),
		log:         log,
	}
}

func validateProduct(op string, req ProductRequest) (ProductRequest, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Description = strings.TrimSpace(req.Description)
	if req.Code == "" {
		return req, apperror.InvalidArgument(op, "code is required")
	}
	if req.Description == "" {
		return req, apperror.InvalidArgument(op, "description is required")
	}
	if !req.Price.Valid {
		return req, apperror.InvalidArgument(op, "price is required")
	}
	if req.Price.Decimal.IsNegative() {
		return req, apperror.InvalidArgument(op, "price must not be negative")
	}
	return req, nil
}

func (s *productService) Save(ctx context.Context, actor string, req ProductRequest) (ProductResponse, error) {
	return s.write(ctx, "save product", actor, req, true)
}

func (s *productService) Update(ctx context.Context, actor string, req ProductRequest) (ProductResponse, error) {
	return s.write(ctx, "update product", actor, req, false)
}

func (s *productService) write(ctx context.Context, op, actor string, req ProductRequest, createMissing bool) (ProductResponse, error) {
	req, err := validateProduct(op, req)
	if err != nil {
		return ProductResponse{}, err
	}

	var product *model.Product
	created := false

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.productRepo.FindByCodeForUpdate(txCtx, req.Code)
		switch {
		case err == nil:
			existing.Description = req.Description
			existing.Price = req.Price.Decimal
			if err := s.productRepo.Update(txCtx, existing); err != nil {
				return apperror.StoreUnavailable(op, err)
			}
			product = existing
		case errors.Is(err, repository.ErrNotFound):
			if !createMissing {
				return apperror.NotFound(op, "product %s not found", req.Code)
			}
			product = &model.Product{Code: req.Code, Description: req.Description, Price: req.Price.Decimal}
			if err := s.productRepo.Create(txCtx, product); err != nil {
				return apperror.StoreUnavailable(op, err)
			}
			created = true
		default:
			return apperror.StoreUnavailable(op, err)
		}

		action := model.ActionUpdateProduct
		if created {
			action = model.ActionCreateProduct
		}
		return s.audit(txCtx, op, actor, action, product, req)
	})
	if err != nil {
		return ProductResponse{}, storeErr(op, err)
	}

	resp := toProductResponse(*product)
	resp.Created = created

	if created {
		metrics.RecordProductMutation("create")
	} else {
		metrics.RecordProductMutation("update")
	}
	s.log.WithFields(logrus.Fields{"code": product.Code, "created": created}).Info("product saved")
	s.events.Publish(EventProductSaved, resp)

	return resp, nil
}

func (s *productService) List(ctx context.Context, p pagination.Params) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, p)
	if err != nil {
		return nil, 0, apperror.StoreUnavailable("list products", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}
	return res, total, nil
}

func (s *productService) Delete(ctx context.Context, actor string, code string) (ProductResponse, error) {
	const op = "delete product"

	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.productRepo.FindByCodeForUpdate(txCtx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound(op, "product %s not found", code)
			}
			return apperror.StoreUnavailable(op, err)
		}

		if err := s.productRepo.DeleteByCode(txCtx, code); err != nil {
			return apperror.StoreUnavailable(op, err)
		}
		return s.audit(txCtx, op, actor, model.ActionDeleteProduct, product, map[string]string{"deleted_code": code})
	})
	if err != nil {
		return ProductResponse{}, storeErr(op, err)
	}

	resp := toProductResponse(*product)
	metrics.RecordProductMutation("delete")
	s.log.WithField("code", code).Info("product deleted")
	s.events.Publish(EventProductDeleted, resp)

	return resp, nil
}

func (s *productService) audit(ctx context.Context, op, actor, action string, product *model.Product, details interface{}) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		Actor:      actor,
		Action:     action,
		EntityID:   product.Code,
		EntityName: product.Description,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return apperror.StoreUnavailable(op+": write audit log", err)
	}
	return nil
}

// storeErr keeps classified errors and marks anything else (e.g. a failed commit) as a store failure
func storeErr(op string, err error) error {
	if apperror.KindOf(err) != apperror.KindUnknown {
		return err
	}
	return apperror.StoreUnavailable(op, err)
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Code:        p.Code,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
