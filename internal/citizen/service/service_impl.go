package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/valnet/valdesk-central/internal/citizen/domain"
	"github.com/valnet/valdesk-central/internal/clock"
	pkgdb "github.com/valnet/valdesk-central/pkg/db"
	"github.com/valnet/valdesk-central/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("citizen.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCitizenRequest) (domain.Citizen, error) {
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return domain.Citizen{}, domain.ErrInvalidName
	}

	cedula := strings.TrimSpace(req.Cedula)
	if cedula == "" {
		return domain.Citizen{}, domain.ErrInvalidCedula
	}

	now := s.clock.Now()
	citizen := domain.Citizen{
		ID:              s.genID.Generate(),
		FirstName:       firstName,
		LastName:        strings.TrimSpace(req.LastName),
		Cedula:          cedula,
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		Address:         strings.TrimSpace(req.Address),
		City:            strings.TrimSpace(req.City),
		Lat:             req.Lat,
		Lng:             req.Lng,
		ContactMetadata: datatypes.JSONMap{},
		TotalDebt:       decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, s.db, &citizen); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.Citizen{}, domain.ErrCedulaTaken
		}
		return domain.Citizen{}, err
	}

	return citizen, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCitizenRequest) (domain.Citizen, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Citizen{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Citizen{}, err
	}
	if item == nil {
		return domain.Citizen{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCitizenRequest) (domain.ListCitizenResponse, error) {
	filter := domain.ListCitizenFilter{
		Name:     strings.TrimSpace(req.Name),
		Cedula:   strings.TrimSpace(req.Cedula),
		City:     strings.TrimSpace(req.City),
		IsDebtor: req.IsDebtor,
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListCitizenResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(citizen *domain.Citizen) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        citizen.ID.String(),
			CreatedAt: citizen.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	citizens := make([]domain.Citizen, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		citizens = append(citizens, *item)
	}

	resp := domain.ListCitizenResponse{Citizens: citizens}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

// RecalculateDebt repairs the running balance from outstanding invoices.
// The balance is otherwise maintained incrementally by payment application
// and can drift if a write fails partway.
func (s *Service) RecalculateDebt(ctx context.Context, req domain.RecalculateDebtRequest) (domain.DebtRecalculation, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.DebtRecalculation{}, err
	}

	var result domain.DebtRecalculation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		citizen, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if citizen == nil {
			return domain.ErrNotFound
		}

		total, err := s.repo.SumPendingInvoices(ctx, tx, id)
		if err != nil {
			return err
		}

		isDebtor := total.GreaterThan(decimal.Zero)
		if err := s.repo.UpdateDebt(ctx, tx, id, total, isDebtor); err != nil {
			return err
		}

		result = domain.DebtRecalculation{
			CitizenID: id.String(),
			TotalDebt: total,
			IsDebtor:  isDebtor,
		}
		return nil
	})
	if err != nil {
		return domain.DebtRecalculation{}, err
	}

	s.log.Info("citizen debt recalculated",
		zap.String("citizen_id", result.CitizenID),
		zap.String("total_debt", result.TotalDebt.String()),
		zap.Bool("is_debtor", result.IsDebtor),
	)

	return result, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
