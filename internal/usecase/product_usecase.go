package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
	idGen       IDGenerator
	clock       Clock
}

// DI
func NewProductUsecase(
	tx repo.TransactionManager,
	productRepo repo.ProductRepository,
	idGen IDGenerator,
	clock Clock,
) *ProductUsecase {
	return &ProductUsecase{
		tx:          tx,
		productRepo: productRepo,
		idGen:       idGen,
		clock:       clock,
	}
}

type ProductOutput struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Picture           string    `json:"picture"`
	Price             string    `json:"price"`
	AvailableQuantity int64     `json:"available_quantity"`
	Category          string    `json:"category"`
	Tags              []string  `json:"tags"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GET /product の入力
type ListProductsInput struct {
	Limit  int
	Offset int
}

// 管理者の登録・更新入力
type ProductInput struct {
	Name              string
	Description       string
	Picture           string
	Price             decimal.Decimal
	AvailableQuantity int64
	Category          string
	Tags              []string
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) ([]ProductOutput, error) {
	if in.Limit == 0 {
		in.Limit = 50
	}
	if in.Limit < 1 || in.Limit > 100 {
		return nil, Validation("invalid limit")
	}
	if in.Offset < 0 {
		return nil, Validation("invalid offset")
	}

	list, err := u.productRepo.List(ctx, repo.ProductListQuery{Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return nil, Internal("list products", err)
	}
	return toProductOutputs(list), nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID string) (ProductOutput, error) {
	if !isValidID(productID) {
		return ProductOutput{}, ErrProductNotFound
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, ErrProductNotFound
	}
	if err != nil {
		return ProductOutput{}, Internal("find product", err)
	}
	return toProductOutput(p), nil
}

// 名前の部分一致 or タグ一致。0件は NotFound
func (u *ProductUsecase) SearchProducts(ctx context.Context, term string) ([]ProductOutput, error) {
	term = strings.TrimSpace(term)
	if term == "" || len(term) > 100 {
		return nil, Validation("invalid search term")
	}

	list, err := u.productRepo.List(ctx, repo.ProductListQuery{Term: term})
	if err != nil {
		return nil, Internal("search products", err)
	}
	if len(list) == 0 {
		return nil, ErrNoProducts
	}
	return toProductOutputs(list), nil
}

func (u *ProductUsecase) ListByCategory(ctx context.Context, category string) ([]ProductOutput, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, Validation("invalid category")
	}

	list, err := u.productRepo.List(ctx, repo.ProductListQuery{Category: category})
	if err != nil {
		return nil, Internal("list products by category", err)
	}
	if len(list) == 0 {
		return nil, ErrNoProducts
	}
	return toProductOutputs(list), nil
}

func validateProductInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return Validation("name required")
	}
	if in.Price.IsNegative() {
		return Validation("price must be >= 0")
	}
	//小数は2桁まで
	if !in.Price.Equal(in.Price.Round(2)) {
		return Validation("price must have at most 2 decimal places")
	}
	if in.AvailableQuantity < 0 {
		return Validation("available_quantity must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID string, in ProductInput) (ProductOutput, error) {
	if adminUserID == "" {
		return ProductOutput{}, ErrUnauthorized
	}
	if err := validateProductInput(in); err != nil {
		return ProductOutput{}, err
	}

	now := u.clock.Now()
	p := model.Product{
		ID:                u.idGen.NewID(),
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		Picture:           in.Picture,
		Price:             in.Price,
		AvailableQuantity: in.AvailableQuantity,
		Category:          strings.TrimSpace(in.Category),
		Tags:              normalizeTags(in.Tags),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		created, err = r.Products().Create(ctx, p)
		if err != nil {
			return Internal("create product", err)
		}
		return u.audit(ctx, r, adminUserID, model.AuditActionCreateProduct, created.ID, nil, &created)
	})
	if err != nil {
		return ProductOutput{}, asUsecaseError("create product", err)
	}
	return toProductOutput(created), nil
}

// 在庫数が変わったら調整履歴も同じTxで残す
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID, productID string, in ProductInput) (ProductOutput, error) {
	if adminUserID == "" {
		return ProductOutput{}, ErrUnauthorized
	}
	if !isValidID(productID) {
		return ProductOutput{}, ErrProductNotFound
	}
	if err := validateProductInput(in); err != nil {
		return ProductOutput{}, err
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return Internal("find product", err)
		}

		now := u.clock.Now()
		updated = before
		updated.Name = strings.TrimSpace(in.Name)
		updated.Description = in.Description
		updated.Picture = in.Picture
		updated.Price = in.Price
		updated.AvailableQuantity = in.AvailableQuantity
		updated.Category = strings.TrimSpace(in.Category)
		updated.Tags = normalizeTags(in.Tags)
		updated.UpdatedAt = now

		if err := r.Products().Update(ctx, updated); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProductNotFound
			}
			return Internal("update product", err)
		}

		if delta := updated.AvailableQuantity - before.AvailableQuantity; delta != 0 {
			if err := r.Adjustments().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   productID,
				AdminUserID: adminUserID,
				Delta:       delta,
				Reason:      "admin product update",
				CreatedAt:   now,
			}); err != nil {
				return Internal("create adjustment", err)
			}
		}

		return u.audit(ctx, r, adminUserID, model.AuditActionUpdateProduct, productID, &before, &updated)
	})
	if err != nil {
		return ProductOutput{}, asUsecaseError("update product", err)
	}
	return toProductOutput(updated), nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID, productID string) error {
	if adminUserID == "" {
		return ErrUnauthorized
	}
	if !isValidID(productID) {
		return ErrProductNotFound
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return Internal("find product", err)
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProductNotFound
			}
			return Internal("delete product", err)
		}
		return u.audit(ctx, r, adminUserID, model.AuditActionDeleteProduct, productID, &before, nil)
	})
	return asUsecaseError("delete product", err)
}

func (u *ProductUsecase) audit(ctx context.Context, r repo.TxRepos, actor string, action model.AuditAction, productID string, before, after *model.Product) error {
	log := model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		CreatedAt:    u.clock.Now(),
	}
	if before != nil {
		b, _ := json.Marshal(toProductOutput(*before))
		log.BeforeJSON = string(b)
	}
	if after != nil {
		b, _ := json.Marshal(toProductOutput(*after))
		log.AfterJSON = string(b)
	}
	if err := r.AuditLogs().Create(ctx, log); err != nil {
		return Internal("create audit log", err)
	}
	return nil
}

func normalizeTags(tags []string) pq.StringArray {
	out := pq.StringArray{}
	seen := map[string]struct{}{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func toProductOutput(p model.Product) ProductOutput {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return ProductOutput{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Picture:           p.Picture,
		Price:             p.Price.StringFixed(2),
		AvailableQuantity: p.AvailableQuantity,
		Category:          p.Category,
		Tags:              tags,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toProductOutputs(list []model.Product) []ProductOutput {
	out := make([]ProductOutput, 0, len(list))
	for _, p := range list {
		out = append(out, toProductOutput(p))
	}
	return out
}
