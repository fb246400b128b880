package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"
)

type AddressDTO struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

func (r AddressRequest) normalize() (AddressRequest, error) {
	r.Street = strings.TrimSpace(r.Street)
	r.City = strings.TrimSpace(r.City)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	if r.Street == "" || r.City == "" || r.PostalCode == "" {
		return r, Validation("street, city and postal_code are required")
	}
	if len(r.PostalCode) > 20 {
		return r, Validation("postal_code is too long")
	}
	return r, nil
}

type AddressUsecase struct {
	addresses repository.AddressRepository
	idGen     IDGenerator
	clock     Clock
}

func NewAddressUsecase(addresses repository.AddressRepository, idGen IDGenerator, clock Clock) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, idGen: idGen, clock: clock}
}

func (u *AddressUsecase) List(ctx context.Context, userID string) ([]AddressDTO, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, Internal("list addresses", err)
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID string, req AddressRequest) (AddressDTO, error) {
	if userID == "" {
		return AddressDTO{}, ErrUnauthorized
	}

	//入力チェック
	req, err := req.normalize()
	if err != nil {
		return AddressDTO{}, err
	}

	now := u.clock.Now()
	created, err := u.addresses.Create(ctx, model.Address{
		ID:         u.idGen.NewID(),
		UserID:     userID,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return AddressDTO{}, Internal("create address", err)
	}

	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID, addressID string, req AddressRequest) (AddressDTO, error) {
	req, err := req.normalize()
	if err != nil {
		return AddressDTO{}, err
	}

	//所有チェック（本人のみ）
	a, err := u.findOwned(ctx, userID, addressID)
	if err != nil {
		return AddressDTO{}, err
	}

	a.Street = req.Street
	a.City = req.City
	a.PostalCode = req.PostalCode
	a.UpdatedAt = u.clock.Now()

	if err := u.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AddressDTO{}, ErrAddressNotFound
		}
		return AddressDTO{}, Internal("update address", err)
	}
	return toAddressDTO(&a), nil
}

// 注文側の参照は NULL になる（注文は残る）
func (u *AddressUsecase) Delete(ctx context.Context, userID, addressID string) error {
	if _, err := u.findOwned(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAddressNotFound
		}
		return Internal("delete address", err)
	}
	return nil
}

// 他人の住所は「存在しない扱い」
func (u *AddressUsecase) findOwned(ctx context.Context, userID, addressID string) (model.Address, error) {
	if userID == "" {
		return model.Address{}, ErrUnauthorized
	}
	if !isValidID(addressID) {
		return model.Address{}, ErrAddressNotFound
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Address{}, ErrAddressNotFound
	}
	if err != nil {
		return model.Address{}, Internal("find address", err)
	}
	if a.UserID != userID {
		return model.Address{}, ErrAddressNotFound
	}
	return a, nil
}

func toAddressDTO(a *model.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
}
