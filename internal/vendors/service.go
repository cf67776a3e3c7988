package vendors

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbooks/payables-backend/pkg/db/models"
	"github.com/vendorbooks/payables-backend/pkg/errors"
)

// CreateVendorInput captures the fields needed to register a vendor.
// Opening balances are booked afterwards through the guard and the entry
// store, not here.
type CreateVendorInput struct {
	Name         string
	ContactEmail *string
}

// Service exposes vendor master-data operations. Balance mutation is not
// here; that belongs to the Guard.
type Service interface {
	Create(ctx context.Context, input CreateVendorInput) (*models.Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context, activeOnly bool) ([]models.Vendor, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type service struct {
	repo *Repository
}

// NewService wires the vendor service with its repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor service requires a repository")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateVendorInput) (*models.Vendor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "vendor name is required")
	}

	vendor := &models.Vendor{
		Name:         name,
		ContactEmail: input.ContactEmail,
		Active:       true,
		Balance:      decimal.Zero,
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "persist vendor")
	}
	return vendor, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "vendor id is required")
	}
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "load vendor")
	}
	if vendor == nil {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("vendor %s not found", id))
	}
	return vendor, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.Vendor, error) {
	list, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "list vendors")
	}
	return list, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !vendor.Active {
		return vendor, nil
	}
	vendor.Active = false
	if err := s.repo.Update(ctx, vendor); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "persist vendor")
	}
	return vendor, nil
}
