package services

import (
	"testing"
	"time"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func TestDefaultCellsOnePerColumn(t *testing.T) {
	cols := []*models.Column{
		{ID: "c1", Type: constants.ColumnTypeText},
		{ID: "c2", Type: constants.ColumnTypeNumber},
		{ID: "c3", Type: constants.ColumnTypeCheckbox},
		{ID: "c4", Type: constants.ColumnTypeDate},
		{ID: "c5", Type: constants.ColumnTypeSelect},
	}

	cells := DefaultCells("row-1", cols)
	assert.Len(t, cells, len(cols))

	byColumn := make(map[string]*models.Cell)
	for _, cell := range cells {
		assert.Equal(t, "row-1", cell.RowID)
		assert.NotEmpty(t, cell.ID)
		assert.Equal(t, constants.ValidationValid, cell.ValidationStatus)
		byColumn[cell.ColumnID] = cell
	}

	assert.Equal(t, "", *byColumn["c1"].Value)
	assert.Equal(t, "0", *byColumn["c2"].Value)
	assert.Equal(t, "false", *byColumn["c3"].Value)
	assert.Equal(t, time.Now().Format("2006-01-02"), *byColumn["c4"].Value)
	// Select defaults to no selection
	assert.Nil(t, byColumn["c5"].Value)
}

func TestDefaultCellsExplicitDefaultWins(t *testing.T) {
	def := "Pending"
	cols := []*models.Column{
		{ID: "c1", Type: constants.ColumnTypeSelect, DefaultValue: &def},
	}

	cells := DefaultCells("row-1", cols)
	assert.Len(t, cells, 1)
	assert.Equal(t, "Pending", *cells[0].Value)
}

func TestDefaultCellsUnknownTypeFallsBackToEmpty(t *testing.T) {
	cols := []*models.Column{
		{ID: "c1", Type: "geo_point"},
	}

	cells := DefaultCells("row-1", cols)
	assert.Len(t, cells, 1)
	assert.Equal(t, "", *cells[0].Value)
}

func TestDefaultCellsNoColumns(t *testing.T) {
	assert.Empty(t, DefaultCells("row-1", nil))
}
