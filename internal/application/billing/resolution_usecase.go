package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	"github.com/jfacosta/facturapos-api/pkg/logger"
)

// ResolutionUseCase administra las resoluciones de numeración DIAN de una
// empresa. La regla dura es la unicidad de resolución activa: activar una
// desactiva todas las demás en la misma operación.
type ResolutionUseCase struct {
	resolutions repository.ResolutionRepository
	log         *logger.Logger
}

// NewResolutionUseCase construye el caso de uso.
func NewResolutionUseCase(resolutions repository.ResolutionRepository, log *logger.Logger) *ResolutionUseCase {
	return &ResolutionUseCase{resolutions: resolutions, log: log}
}

// Create registra una resolución. current_number arranca en from_number-1:
// la primera factura emitida toma exactamente from_number.
func (uc *ResolutionUseCase) Create(ctx context.Context, companyID string, in dto.CreateResolutionRequest) (*dto.ResolutionResponse, error) {
	if in.ResolutionNumber == "" || in.Prefix == "" {
		return nil, fmt.Errorf("%w: número de resolución y prefijo son obligatorios", domain.ErrInvalidInput)
	}
	if in.FromNumber < 1 || in.ToNumber < in.FromNumber {
		return nil, fmt.Errorf("%w: rango autorizado inválido [%d, %d]", domain.ErrInvalidInput, in.FromNumber, in.ToNumber)
	}
	resolutionDate, err := parseDay(in.ResolutionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha de resolución: %v", domain.ErrInvalidInput, err)
	}
	validFrom, err := parseDay(in.ValidFrom)
	if err != nil {
		return nil, fmt.Errorf("%w: vigencia desde: %v", domain.ErrInvalidInput, err)
	}
	validTo, err := parseDay(in.ValidTo)
	if err != nil {
		return nil, fmt.Errorf("%w: vigencia hasta: %v", domain.ErrInvalidInput, err)
	}
	if validTo.Before(validFrom) {
		return nil, fmt.Errorf("%w: la vigencia termina antes de empezar", domain.ErrInvalidInput)
	}

	res := &entity.Resolution{
		CompanyID:        companyID,
		ResolutionNumber: in.ResolutionNumber,
		ResolutionDate:   resolutionDate,
		Prefix:           in.Prefix,
		FromNumber:       in.FromNumber,
		ToNumber:         in.ToNumber,
		CurrentNumber:    in.FromNumber - 1,
		TechnicalKey:     in.TechnicalKey,
		ValidFrom:        validFrom,
		ValidTo:          validTo,
		IsActive:         false,
	}

	if in.Activate {
		if err := uc.resolutions.DeactivateByCompany(ctx, companyID); err != nil {
			return nil, err
		}
		res.IsActive = true
	}
	if err := uc.resolutions.Create(ctx, res); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("resolution_id", res.ID).
		Str("prefix", res.Prefix).
		Int64("from", res.FromNumber).
		Int64("to", res.ToNumber).
		Bool("active", res.IsActive).
		Msg("resolución registrada")
	return toResolutionResponse(res), nil
}

// Activate activa la resolución indicada desactivando cualquier otra de la
// empresa. No reinicia el consecutivo: una resolución reactivada continúa
// donde iba.
func (uc *ResolutionUseCase) Activate(ctx context.Context, companyID, resolutionID string) (*dto.ResolutionResponse, error) {
	res, err := uc.resolutions.GetByID(ctx, resolutionID)
	if err != nil {
		return nil, err
	}
	if res.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if res.Exhausted() {
		return nil, fmt.Errorf("%w: no se puede activar una resolución sin números disponibles", domain.ErrResolutionExhausted)
	}
	if err := uc.resolutions.DeactivateByCompany(ctx, companyID); err != nil {
		return nil, err
	}
	res.IsActive = true
	if err := uc.resolutions.Update(ctx, res); err != nil {
		return nil, err
	}
	uc.log.Info().Str("resolution_id", resolutionID).Msg("resolución activada")
	return toResolutionResponse(res), nil
}

// List lista las resoluciones de la empresa.
func (uc *ResolutionUseCase) List(ctx context.Context, companyID string) ([]*dto.ResolutionResponse, error) {
	list, err := uc.resolutions.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ResolutionResponse, 0, len(list))
	for _, res := range list {
		out = append(out, toResolutionResponse(res))
	}
	return out, nil
}

// GetActive devuelve la resolución activa de la empresa.
func (uc *ResolutionUseCase) GetActive(ctx context.Context, companyID string) (*dto.ResolutionResponse, error) {
	res, err := uc.resolutions.GetActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return toResolutionResponse(res), nil
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func toResolutionResponse(res *entity.Resolution) *dto.ResolutionResponse {
	return &dto.ResolutionResponse{
		ID:               res.ID,
		CompanyID:        res.CompanyID,
		ResolutionNumber: res.ResolutionNumber,
		ResolutionDate:   res.ResolutionDate.Format("2006-01-02"),
		Prefix:           res.Prefix,
		FromNumber:       res.FromNumber,
		ToNumber:         res.ToNumber,
		CurrentNumber:    res.CurrentNumber,
		Remaining:        res.ToNumber - res.CurrentNumber,
		ValidFrom:        res.ValidFrom.Format("2006-01-02"),
		ValidTo:          res.ValidTo.Format("2006-01-02"),
		IsActive:         res.IsActive,
	}
}
