package audit

import (
	"context"
	"fmt"
)

// Repository menyediakan akses baca ke tabel audit.
type Repository interface {
	AccessWindow(ctx context.Context, filters AccessFilters, offset, limit int) ([]AccessRow, error)
	ViolationWindow(ctx context.Context, filters ViolationFilters, offset, limit int) ([]ViolationRow, error)
}

// Service mengoordinasikan pengambilan jejak keputusan otorisasi.
type Service struct {
	repo Repository
}

// NewService membuat service audit baru.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AccessLogs mengambil access log dengan paging.
func (s *Service) AccessLogs(ctx context.Context, filters AccessFilters) (AccessResult, error) {
	if s.repo == nil {
		return AccessResult{}, fmt.Errorf("audit: repository not configured")
	}
	page, pageSize := normalizePage(filters.Page, filters.PageSize)
	offset := (page - 1) * pageSize
	rows, err := s.repo.AccessWindow(ctx, filters, offset, pageSize+1)
	if err != nil {
		return AccessResult{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	return AccessResult{Rows: rows, Paging: buildPaging(page, pageSize, hasNext)}, nil
}

// Violations mengambil pelanggaran policy dengan paging.
func (s *Service) Violations(ctx context.Context, filters ViolationFilters) (ViolationResult, error) {
	if s.repo == nil {
		return ViolationResult{}, fmt.Errorf("audit: repository not configured")
	}
	page, pageSize := normalizePage(filters.Page, filters.PageSize)
	offset := (page - 1) * pageSize
	rows, err := s.repo.ViolationWindow(ctx, filters, offset, pageSize+1)
	if err != nil {
		return ViolationResult{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	return ViolationResult{Rows: rows, Paging: buildPaging(page, pageSize, hasNext)}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

func buildPaging(page, pageSize int, hasNext bool) PagingInfo {
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return paging
}
