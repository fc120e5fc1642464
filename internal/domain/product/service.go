package product

import (
	"context"
	"strings"
	"time"

	"kardex/internal/core/apperror"
	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/core/tx"
	"kardex/internal/core/types"
	"kardex/internal/domain/ledger"
	"kardex/pkg/logger"
)

// Service provides catalog operations. Stock figures on returned products
// come from the ledger; creating a product with initial stock opens the
// product's first batch through a ledger movement.
type Service struct {
	repo  Repository
	stock *ledger.Service
	txm   tx.Manager
}

// NewService creates a product service.
func NewService(repo Repository, stock *ledger.Service, txm tx.Manager) *Service {
	return &Service{repo: repo, stock: stock, txm: txm}
}

// CreateInput is a new catalog entry.
type CreateInput struct {
	SKU         string
	Name        string
	Description *string
	Unit        string
	PackSize    *int
	Category    *string
	ExpiryDate  *time.Time

	CostPrice        *types.Money
	PackCostPrice    *types.Money
	SellingPrice     *types.Money
	PackSellingPrice *types.Money

	// InitialStock, when positive, opens the product's first batch.
	InitialStock    *types.Quantity
	InitialLocation *string
}

// Create adds a product and, when initial stock is given, records the
// opening movement in the same transaction.
func (s *Service) Create(ctx context.Context, scope tenant.Scope, in CreateInput) (*Product, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.NewValidation("Product name is required")
	}
	sku := strings.TrimSpace(in.SKU)
	if sku == "" {
		return nil, apperror.NewValidation("SKU is required")
	}
	unit := in.Unit
	if unit == "" {
		unit = "unit"
	}

	var created *Product
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		taken, err := s.repo.ExistsByName(ctx, scope, name)
		if err != nil {
			return err
		}
		if taken {
			return apperror.NewDuplicate("product", "name", name)
		}

		p := &Product{
			ID:               id.New(),
			TenantUserID:     scope.ActorUserID,
			BranchID:         scope.BranchID,
			SKU:              sku,
			Name:             name,
			Description:      in.Description,
			Unit:             unit,
			PackSize:         in.PackSize,
			Category:         in.Category,
			ExpiryDate:       in.ExpiryDate,
			CostPrice:        in.CostPrice,
			PackCostPrice:    in.PackCostPrice,
			SellingPrice:     in.SellingPrice,
			PackSellingPrice: in.PackSellingPrice,
		}
		if err := s.repo.Create(ctx, scope, p); err != nil {
			return err
		}

		if in.InitialStock != nil && in.InitialStock.IsPositive() {
			_, err := s.stock.RecordMovement(ctx, scope, ledger.RecordMovementInput{
				ProductID:     p.ID,
				Change:        *in.InitialStock,
				Reason:        "Initial Stock",
				ExpiryDate:    in.ExpiryDate,
				Location:      in.InitialLocation,
				UnitCostPrice: in.CostPrice,
			})
			if err != nil {
				return err
			}
			p.CurrentStock = *in.InitialStock
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "created product", "product_id", created.ID, "sku", created.SKU)
	return created, nil
}

// Get returns one product with its derived stock total.
func (s *Service) Get(ctx context.Context, scope tenant.Scope, productID id.ID) (*Product, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	total, err := s.stock.CurrentStock(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	p.CurrentStock = total
	return p, nil
}

// List returns all products in the branch with derived stock totals.
// Expired batches across the branch are written off first, so the listed
// totals never include stale stock.
func (s *Service) List(ctx context.Context, scope tenant.Scope) ([]Product, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	var products []Product
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stock.WriteOffExpired(ctx, scope, nil); err != nil {
			return err
		}
		var err error
		products, err = s.repo.List(ctx, scope)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i := range products {
		total, err := s.stock.AvailableStock(ctx, scope, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].CurrentStock = types.ClampNonNegative(total)
	}
	return products, nil
}

// UpdateInput carries optional field changes; nil means keep.
type UpdateInput struct {
	SKU         *string
	Name        *string
	Description *string
	Unit        *string
	PackSize    *int
	Category    *string
	ExpiryDate  *time.Time

	CostPrice        *types.Money
	PackCostPrice    *types.Money
	SellingPrice     *types.Money
	PackSellingPrice *types.Money
}

// Update patches a product.
func (s *Service) Update(ctx context.Context, scope tenant.Scope, productID id.ID, in UpdateInput) (*Product, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	var updated *Product
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, scope, productID)
		if err != nil {
			return err
		}

		if in.SKU != nil && *in.SKU != p.SKU {
			taken, err := s.repo.ExistsBySKU(ctx, scope, *in.SKU, &productID)
			if err != nil {
				return err
			}
			if taken {
				return apperror.NewDuplicate("product", "sku", *in.SKU)
			}
			p.SKU = *in.SKU
		}
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			p.Description = in.Description
		}
		if in.Unit != nil {
			p.Unit = *in.Unit
		}
		if in.PackSize != nil {
			p.PackSize = in.PackSize
		}
		if in.Category != nil {
			p.Category = in.Category
		}
		if in.ExpiryDate != nil {
			p.ExpiryDate = in.ExpiryDate
		}
		if in.CostPrice != nil {
			p.CostPrice = in.CostPrice
		}
		if in.PackCostPrice != nil {
			p.PackCostPrice = in.PackCostPrice
		}
		if in.SellingPrice != nil {
			p.SellingPrice = in.SellingPrice
		}
		if in.PackSellingPrice != nil {
			p.PackSellingPrice = in.PackSellingPrice
		}

		if err := s.repo.Update(ctx, scope, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a product and its movement history.
func (s *Service) Delete(ctx context.Context, scope tenant.Scope, productID id.ID) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, scope, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, scope, productID); err != nil {
		return err
	}
	logger.Info(ctx, "deleted product", "product_id", productID)
	return nil
}

// LookupAdapter satisfies ledger.ProductLookup straight from the
// repository, so the ledger service can be built before this one.
type LookupAdapter struct {
	Repo Repository
}

// Lookup implements ledger.ProductLookup.
func (a LookupAdapter) Lookup(ctx context.Context, scope tenant.Scope, productID id.ID) (ledger.ProductInfo, error) {
	p, err := a.Repo.GetByID(ctx, scope, productID)
	if err != nil {
		return ledger.ProductInfo{}, err
	}
	return ledger.ProductInfo{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		CostPrice: p.CostPrice,
	}, nil
}
