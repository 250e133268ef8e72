package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/shared"
	csvimport "github.com/qm/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

// Columns of the category sheet. Each row describes one leaf and its two
// ancestors; the full code of a level concatenates the codes above it.
const (
	ColLvl1Name  = "lvl1_name"
	ColLvl1Code  = "lvl1_code"
	ColLvl2Name  = "lvl2_name"
	ColLvl2Code  = "lvl2_code"
	ColLvl3Name  = "lvl3_name"
	ColLvl3Code  = "lvl3_code"
	ColTaxCode   = "tc_code"
	ColTaxCode18 = "tc18_code"
	ColTaxName   = "tc_name"
)

var requiredCategoryColumns = []string{ColLvl1Name, ColLvl1Code, ColLvl2Name, ColLvl2Code, ColLvl3Name, ColLvl3Code}

// CategoryImportService loads a three level category sheet with tax
// classifications. Re-running the same sheet changes nothing.
type CategoryImportService struct {
	categoryRepo catalog.ProductCategoryRepository
	taxClassRepo catalog.TaxClassificationRepository
	logger       *zap.Logger
	maxErrors    int
}

// NewCategoryImportService creates a new CategoryImportService
func NewCategoryImportService(categoryRepo catalog.ProductCategoryRepository, taxClassRepo catalog.TaxClassificationRepository, logger *zap.Logger) *CategoryImportService {
	return &CategoryImportService{
		categoryRepo: categoryRepo,
		taxClassRepo: taxClassRepo,
		logger:       logger,
		maxErrors:    100,
	}
}

type importRun struct {
	tenantID   uuid.UUID
	result     *CategoryImportResult
	errors     *csvimport.ErrorCollection
	categories map[string]*catalog.ProductCategory
	classes    map[string]*catalog.TaxClassification
}

// Import reads the sheet and creates the missing categories and
// classifications. Row problems are reported; storage failures abort.
func (s *CategoryImportService) Import(ctx context.Context, tenantID uuid.UUID, r io.Reader, opts ...csvimport.ParserOption) (*CategoryImportResult, error) {
	parser, err := csvimport.NewCSVParser(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.ValidateHeaders(requiredCategoryColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", csvimport.ErrMissingColumns, missing)
	}
	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}

	run := &importRun{
		tenantID:   tenantID,
		result:     &CategoryImportResult{TotalRows: len(rows), Encoding: parser.Encoding()},
		errors:     csvimport.NewErrorCollection(s.maxErrors),
		categories: make(map[string]*catalog.ProductCategory),
		classes:    make(map[string]*catalog.TaxClassification),
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := s.importRow(ctx, run, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			run.result.ErrorRows++
		}
	}

	run.result.Errors = run.errors.Errors()
	run.result.IsTruncated = run.errors.IsTruncated()
	s.logger.Info("category sheet imported",
		zap.String("tenant_id", tenantID.String()),
		zap.String("encoding", run.result.Encoding),
		zap.Int("rows", run.result.TotalRows),
		zap.Int("created", run.result.CategoriesCreated),
		zap.Int("classifications", run.result.ClassificationsCreated),
		zap.Int("error_rows", run.result.ErrorRows),
	)
	return run.result, nil
}

func (s *CategoryImportService) importRow(ctx context.Context, run *importRun, row *csvimport.Row) (bool, error) {
	for _, col := range []string{ColLvl1Code, ColLvl1Name, ColLvl2Code, ColLvl2Name} {
		if row.Get(col) == "" {
			run.errors.AddRequiredError(row.LineNumber, col)
			return false, nil
		}
	}

	var classID *uuid.UUID
	if code, name := row.Get(ColTaxCode), row.Get(ColTaxName); code != "" && name != "" {
		tc, err := s.classification(ctx, run, code, row.Get(ColTaxCode18), name)
		if errors.Is(err, errInvalidRow) {
			run.errors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, ColTaxCode, csvimport.ErrCodeInvalidValue, "invalid tax classification", code))
			return false, nil
		}
		if err != nil {
			return false, err
		}
		classID = &tc.ID
	}

	lvl1, err := s.category(ctx, run, nil, row.Get(ColLvl1Code), row.Get(ColLvl1Name))
	if err != nil {
		return s.rowFailure(run, row, ColLvl1Code, err)
	}
	lvl2, err := s.category(ctx, run, lvl1, row.Get(ColLvl2Code), row.Get(ColLvl2Name))
	if err != nil {
		return s.rowFailure(run, row, ColLvl2Code, err)
	}
	code3, name3 := row.Get(ColLvl3Code), row.Get(ColLvl3Name)
	if code3 == "" || name3 == "" {
		return true, nil
	}
	lvl3, err := s.category(ctx, run, lvl2, code3, name3)
	if err != nil {
		return s.rowFailure(run, row, ColLvl3Code, err)
	}
	if classID != nil && (lvl3.TaxClassificationID == nil || *lvl3.TaxClassificationID != *classID) {
		lvl3.SetTaxClassification(classID)
		lvl3.ClearDomainEvents()
		if err := s.categoryRepo.Save(ctx, lvl3); err != nil {
			return false, err
		}
	}
	return true, nil
}

var errInvalidRow = errors.New("invalid row")

func (s *CategoryImportService) rowFailure(run *importRun, row *csvimport.Row, column string, err error) (bool, error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		run.errors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, column, csvimport.ErrCodeInvalidValue, domainErr.Message, row.Get(column)))
		return false, nil
	}
	return false, err
}

func (s *CategoryImportService) classification(ctx context.Context, run *importRun, code, code18, name string) (*catalog.TaxClassification, error) {
	if tc, ok := run.classes[code]; ok {
		return tc, nil
	}
	tc, err := s.taxClassRepo.FindByCode(ctx, run.tenantID, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if tc == nil {
		if tc, err = catalog.NewTaxClassification(run.tenantID, name, code, code18); err != nil {
			return nil, errInvalidRow
		}
		if err := s.taxClassRepo.Save(ctx, tc); err != nil {
			return nil, err
		}
		run.result.ClassificationsCreated++
	}
	run.classes[code] = tc
	return tc, nil
}

// category finds the category by full code or creates it under parent.
// An existing category whose name differs is renamed.
func (s *CategoryImportService) category(ctx context.Context, run *importRun, parent *catalog.ProductCategory, code, name string) (*catalog.ProductCategory, error) {
	fullCode := code
	if parent != nil {
		fullCode = parent.FullCode + code
	}
	if c, ok := run.categories[fullCode]; ok {
		return c, nil
	}

	c, err := s.categoryRepo.FindByFullCode(ctx, run.tenantID, fullCode)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	switch {
	case c == nil:
		if parent == nil {
			c, err = catalog.NewProductCategory(run.tenantID, code, name)
		} else {
			c, err = catalog.NewChildProductCategory(run.tenantID, code, name, parent)
		}
		if err != nil {
			return nil, err
		}
		c.ClearDomainEvents()
		if err := s.categoryRepo.Save(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to save category %s: %w", fullCode, err)
		}
		run.result.CategoriesCreated++
	case c.Name != name:
		if err := c.Rename(code, name, parent); err != nil {
			return nil, err
		}
		if err := s.categoryRepo.Save(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to save category %s: %w", fullCode, err)
		}
		run.result.CategoriesUpdated++
	}
	run.categories[fullCode] = c
	return c, nil
}
