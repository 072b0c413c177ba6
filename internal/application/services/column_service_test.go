package services

import (
	"testing"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func col(id, name string) *models.Column {
	return &models.Column{ID: id, Name: name, Type: constants.ColumnTypeText}
}

func TestReconcileColumnsNoChanges(t *testing.T) {
	existing := []*models.Column{col("a", "Site ID"), col("b", "Status")}
	desired := []*models.Column{col("a", "Site ID"), col("b", "Status")}

	plan := ReconcileColumns(existing, desired)
	assert.Empty(t, plan.Deletes)
	assert.Len(t, plan.Updates, 2)
	assert.Empty(t, plan.Inserts)
}

func TestReconcileColumnsDeletesMissing(t *testing.T) {
	existing := []*models.Column{col("a", "Site ID"), col("b", "Status"), col("c", "Notes")}
	desired := []*models.Column{col("b", "Status")}

	plan := ReconcileColumns(existing, desired)
	assert.ElementsMatch(t, []string{"a", "c"}, plan.Deletes)
	assert.Len(t, plan.Updates, 1)
	assert.Empty(t, plan.Inserts)
}

func TestReconcileColumnsInsertsNew(t *testing.T) {
	existing := []*models.Column{col("a", "Site ID")}
	desired := []*models.Column{col("a", "Site ID"), col("", "Region")}

	plan := ReconcileColumns(existing, desired)
	assert.Empty(t, plan.Deletes)
	assert.Len(t, plan.Updates, 1)
	assert.Len(t, plan.Inserts, 1)
	// Inserts get an id assigned so the caller can report it back
	assert.NotEmpty(t, plan.Inserts[0].ID)
}

func TestReconcileColumnsUnknownIDIsInsert(t *testing.T) {
	// A desired column with an id the sheet never had is treated as an
	// insert keeping the caller-supplied id.
	existing := []*models.Column{col("a", "Site ID")}
	desired := []*models.Column{col("a", "Site ID"), col("imported-1", "Imported")}

	plan := ReconcileColumns(existing, desired)
	assert.Empty(t, plan.Deletes)
	assert.Len(t, plan.Inserts, 1)
	assert.Equal(t, "imported-1", plan.Inserts[0].ID)
}

func TestReconcileColumnsFullReplacement(t *testing.T) {
	existing := []*models.Column{col("a", "Old 1"), col("b", "Old 2")}
	desired := []*models.Column{col("", "New 1"), col("", "New 2"), col("", "New 3")}

	plan := ReconcileColumns(existing, desired)
	assert.ElementsMatch(t, []string{"a", "b"}, plan.Deletes)
	assert.Empty(t, plan.Updates)
	assert.Len(t, plan.Inserts, 3)
}
