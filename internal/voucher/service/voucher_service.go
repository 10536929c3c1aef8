package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/dto"
	"deligo/internal/errors"
)

type VoucherRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.Voucher, error)
	FindByCode(ctx context.Context, code string) (*domain.Voucher, error)
	MarkUsed(ctx context.Context, promoID, userID uint) error
	RepairUsed(ctx context.Context, promoID, userID uint) error
	RefundUsed(ctx context.Context, promoID, userID uint) error
	HasRedeemed(ctx context.Context, promoID, userID uint) (bool, error)
	HasFirstOrderRedemption(ctx context.Context, userID uint) (bool, error)
	ListAvailableForUser(ctx context.Context, userID uint, restaurantID *uint) ([]domain.Voucher, error)
	ListExpiredForUser(ctx context.Context, userID uint, restaurantID *uint) ([]domain.Voucher, error)
}

type VoucherService struct {
	repo   VoucherRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewVoucherService(repo VoucherRepository, logger *zap.Logger) *VoucherService {
	return &VoucherService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve looks up a voucher by id or, failing that, by code.
func (s *VoucherService) Resolve(ctx context.Context, promoID *uint, code *string) (*domain.Voucher, error) {
	if promoID != nil {
		return s.repo.FindByID(ctx, *promoID)
	}
	if code != nil && *code != "" {
		return s.repo.FindByCode(ctx, *code)
	}
	return nil, errors.NewValidationError("voucher reference requires promoId or code")
}

// Validate runs the voucher checks in order and fails fast with the first
// violated one.
func (s *VoucherService) Validate(ctx context.Context, userID uint, voucher *domain.Voucher, restaurantID uint, subtotal float64) error {
	if !voucher.Active {
		return errors.NewVoucherInvalidError("voucher is not active")
	}
	if !voucher.InWindow(s.now()) {
		return errors.NewVoucherInvalidError("voucher is outside its validity window")
	}
	if !voucher.AppliesTo(restaurantID) {
		return errors.NewVoucherInvalidError("voucher does not apply to this restaurant")
	}
	if voucher.MinOrderAmount != nil && subtotal < *voucher.MinOrderAmount {
		return errors.NewVoucherInvalidError("order subtotal is below the voucher minimum")
	}
	if voucher.FirstOrderOnly {
		used, err := s.repo.HasFirstOrderRedemption(ctx, userID)
		if err != nil {
			return err
		}
		if used {
			return errors.NewVoucherInvalidError("first-order voucher already consumed by this user")
		}
	}
	redeemed, err := s.repo.HasRedeemed(ctx, voucher.ID, userID)
	if err != nil {
		return err
	}
	if redeemed {
		return errors.NewVoucherInvalidError("voucher already redeemed by this user")
	}
	return nil
}

// Quote validates the voucher for the given order context and returns the
// discount amount. Used by checkout with a resolved promo id.
func (s *VoucherService) Quote(ctx context.Context, userID, promoID, restaurantID uint, subtotal, shippingFee float64) (float64, error) {
	voucher, err := s.repo.FindByID(ctx, promoID)
	if err != nil {
		return 0, err
	}
	if err := s.Validate(ctx, userID, voucher, restaurantID, subtotal); err != nil {
		return 0, err
	}
	return voucher.Discount(subtotal, shippingFee), nil
}

// Preview resolves, validates, and prices a voucher without redeeming it.
func (s *VoucherService) Preview(ctx context.Context, userID uint, req dto.PreviewVoucherRequest) (*dto.PreviewVoucherResponse, error) {
	voucher, err := s.Resolve(ctx, req.PromoID, req.Code)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(ctx, userID, voucher, req.RestaurantID, req.Subtotal); err != nil {
		return nil, err
	}

	discount := voucher.Discount(req.Subtotal, req.ShippingFee)
	return &dto.PreviewVoucherResponse{
		Voucher:     toVoucherDTO(voucher),
		Discount:    discount,
		Subtotal:    req.Subtotal,
		ShippingFee: req.ShippingFee,
		Total:       req.Subtotal + req.ShippingFee - discount,
	}, nil
}

// MarkUsed records the redemption. Callers treat a failure here as
// best-effort bookkeeping; the reconciler repairs missed rows later.
func (s *VoucherService) MarkUsed(ctx context.Context, promoID, userID uint) error {
	return s.repo.MarkUsed(ctx, promoID, userID)
}

// RepairUsed re-records a redemption missed during checkout, guarded so a
// repair never lands on an order that has since been cancelled.
func (s *VoucherService) RepairUsed(ctx context.Context, promoID, userID uint) error {
	return s.repo.RepairUsed(ctx, promoID, userID)
}

// RefundUsed releases the redemption so the voucher becomes usable again.
func (s *VoucherService) RefundUsed(ctx context.Context, promoID, userID uint) error {
	return s.repo.RefundUsed(ctx, promoID, userID)
}

func (s *VoucherService) ListAvailable(ctx context.Context, userID uint, restaurantID *uint) ([]dto.AvailableVoucherDTO, error) {
	vouchers, err := s.repo.ListAvailableForUser(ctx, userID, restaurantID)
	if err != nil {
		return nil, err
	}

	firstOrderUsed, err := s.repo.HasFirstOrderRedemption(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.AvailableVoucherDTO, 0, len(vouchers))
	for i := range vouchers {
		v := &vouchers[i]
		result = append(result, dto.AvailableVoucherDTO{
			VoucherDTO:         toVoucherDTO(v),
			EligibleFirstOrder: !v.FirstOrderOnly || !firstOrderUsed,
		})
	}
	return result, nil
}

func (s *VoucherService) ListExpired(ctx context.Context, userID uint, restaurantID *uint) ([]dto.VoucherDTO, error) {
	vouchers, err := s.repo.ListExpiredForUser(ctx, userID, restaurantID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.VoucherDTO, 0, len(vouchers))
	for i := range vouchers {
		result = append(result, toVoucherDTO(&vouchers[i]))
	}
	return result, nil
}

func toVoucherDTO(v *domain.Voucher) dto.VoucherDTO {
	return dto.VoucherDTO{
		ID:             v.ID,
		Code:           v.Code,
		Name:           v.Name,
		Type:           string(v.Type),
		Value:          v.Value,
		MaxDiscount:    v.MaxDiscount,
		MinOrderAmount: v.MinOrderAmount,
		RestaurantID:   v.RestaurantID,
		FirstOrderOnly: v.FirstOrderOnly,
		Active:         v.Active,
		StartDate:      v.StartDate,
		EndDate:        v.EndDate,
		Description:    v.Description,
	}
}
