package services

import (
	"context"

	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/errors"
)

// SearchService answers row searches over sheets. Matching is
// case-insensitive substring on stored cell values; the database does the
// filtering, nothing is paged into memory.
type SearchService struct {
	sheets  *persistence.SheetRepository
	queries *persistence.QueryRepository
}

// NewSearchService creates a new SearchService
func NewSearchService(sheets *persistence.SheetRepository, queries *persistence.QueryRepository) *SearchService {
	return &SearchService{sheets: sheets, queries: queries}
}

// SearchRequest carries a free-text term and per-column filters keyed by
// column id. Term and filters compose with AND; so do multiple filters.
type SearchRequest struct {
	Term    string            `json:"term"`
	Filters map[string]string `json:"filters,omitempty"`
}

// SearchRows returns ids of non-deleted rows matching the request, in
// position order. An empty request matches every live row.
func (s *SearchService) SearchRows(ctx context.Context, sheetID string, req SearchRequest) ([]string, error) {
	sheet, err := s.sheets.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, errors.NewNotFoundError("Sheet", sheetID)
	}

	ids, err := s.queries.SearchRowIDs(ctx, sheetID, req.Term, req.Filters)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
