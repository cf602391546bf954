package reconciliation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSyncConfig() SyncConfig {
	return SyncConfig{Warehouses: []string{"MAIN"}, PricePriority: []string{"RETAIL"}}
}

func TestNewReconciliationRecord(t *testing.T) {
	t.Run("From a Web sighting stays UNLINKED", func(t *testing.T) {
		record, err := NewReconciliationRecord(webRecord("SKU-1", 100, 5))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, record.ID)
		assert.Equal(t, MappingStatusUnlinked, record.Status)
		assert.NotNil(t, record.WebRef)
		assert.Nil(t, record.ERPRef)
		assert.Nil(t, record.SyncConfig)
		assert.Equal(t, 1, record.Version)
	})

	t.Run("From an ERP sighting is immediately LINKED", func(t *testing.T) {
		record, err := NewReconciliationRecord(erpRecord("P-100", 100, 5))
		require.NoError(t, err)
		assert.Equal(t, MappingStatusLinked, record.Status)
		assert.Nil(t, record.WebRef)
		assert.NotNil(t, record.ERPRef)
	})

	t.Run("Invalid source system rejected", func(t *testing.T) {
		_, err := NewReconciliationRecord(SourceRecord{System: "SAP", Code: "X"})
		assert.ErrorIs(t, err, ErrInvalidSourceSystem)
	})

	t.Run("Empty code rejected", func(t *testing.T) {
		_, err := NewReconciliationRecord(SourceRecord{System: SourceSystemWeb})
		assert.ErrorIs(t, err, ErrEmptySourceCode)
	})
}

func TestReconciliationRecord_AttachSource(t *testing.T) {
	t.Run("Attaching ERP moves UNLINKED to LINKED", func(t *testing.T) {
		record, _ := NewReconciliationRecord(webRecord("SKU-1", 100, 5))
		require.NoError(t, record.AttachSource(erpRecord("P-100", 100, 5)))
		assert.Equal(t, MappingStatusLinked, record.Status)
	})

	t.Run("Only a Web reference stays UNLINKED", func(t *testing.T) {
		record, _ := NewReconciliationRecord(webRecord("SKU-1", 100, 5))
		require.NoError(t, record.AttachSource(webRecord("SKU-1", 110, 6)))
		assert.Equal(t, MappingStatusUnlinked, record.Status)
		assert.True(t, record.WebRef.Price.Equal(decimal.NewFromInt(110)))
	})

	t.Run("Fresh data on a CONFIRMED record keeps CONFIRMED", func(t *testing.T) {
		record := linkedRecord(t, webRecord("SKU-1", 100, 5), erpRecord("SKU-1", 100, 5))
		require.NoError(t, record.Confirm(validSyncConfig()))

		require.NoError(t, record.AttachSource(erpRecord("SKU-1", 120, 9)))
		assert.Equal(t, MappingStatusConfirmed, record.Status)
	})

	t.Run("Ledger reference attaches to its own slot", func(t *testing.T) {
		record, _ := NewReconciliationRecord(webRecord("SKU-1", 100, 5))
		ledger := SourceRecord{System: SourceSystemLedger, Code: "L-9", Price: decimal.NewFromInt(100)}
		require.NoError(t, record.AttachSource(ledger))
		assert.Equal(t, MappingStatusLinked, record.Status)
		assert.Equal(t, "L-9", record.Ref(SourceSystemLedger).Code)
	})
}

func TestReconciliationRecord_Confirm(t *testing.T) {
	t.Run("Requires an ERP reference", func(t *testing.T) {
		record, _ := NewReconciliationRecord(webRecord("SKU-1", 100, 5))
		err := record.Confirm(validSyncConfig())
		assert.ErrorIs(t, err, ErrIncompleteMapping)
		assert.Equal(t, MappingStatusUnlinked, record.Status)
		assert.Nil(t, record.SyncConfig)
	})

	t.Run("Ledger alone is not enough", func(t *testing.T) {
		record, _ := NewReconciliationRecord(SourceRecord{System: SourceSystemLedger, Code: "L-9"})
		err := record.Confirm(validSyncConfig())
		assert.ErrorIs(t, err, ErrIncompleteMapping)
		assert.Equal(t, MappingStatusLinked, record.Status)
	})

	t.Run("Outstanding conflicts do not block confirmation", func(t *testing.T) {
		record := linkedRecord(t, webRecord("SKU-1", 101, 5), erpRecord("SKU-1", 100, 5))
		record.ApplyConflicts(DetectConflicts(record))
		require.NotEmpty(t, record.Conflicts)

		require.NoError(t, record.Confirm(validSyncConfig()))
		assert.Equal(t, MappingStatusConfirmed, record.Status)
		assert.NotNil(t, record.ConfirmedAt)
		require.NotNil(t, record.SyncConfig)
		assert.Equal(t, []string{"MAIN"}, record.SyncConfig.Warehouses)
	})

	t.Run("Invalid sync config leaves record unchanged", func(t *testing.T) {
		record := linkedRecord(t, webRecord("SKU-1", 100, 5), erpRecord("SKU-1", 100, 5))
		err := record.Confirm(SyncConfig{})
		assert.ErrorIs(t, err, ErrNoWarehouses)
		assert.Equal(t, MappingStatusLinked, record.Status)
		assert.Nil(t, record.SyncConfig)
	})
}

func TestReconciliationRecord_Unlock(t *testing.T) {
	t.Run("Reverts CONFIRMED to LINKED", func(t *testing.T) {
		record := linkedRecord(t, webRecord("SKU-1", 100, 5), erpRecord("SKU-1", 100, 5))
		require.NoError(t, record.Confirm(validSyncConfig()))

		require.NoError(t, record.Unlock())
		assert.Equal(t, MappingStatusLinked, record.Status)
		assert.Nil(t, record.ConfirmedAt)
	})

	t.Run("Rejected for unconfirmed records", func(t *testing.T) {
		record := linkedRecord(t, webRecord("SKU-1", 100, 5), erpRecord("SKU-1", 100, 5))
		assert.ErrorIs(t, record.Unlock(), ErrNotConfirmed)
	})
}

func TestReconciliationRecord_RemoveLinkage(t *testing.T) {
	record := linkedRecord(t, webRecord("SKU-1", 101, 5), erpRecord("SKU-1", 100, 5))
	record.ApplyConflicts(DetectConflicts(record))
	require.NoError(t, record.Confirm(validSyncConfig()))

	record.RemoveLinkage()

	assert.Equal(t, MappingStatusUnlinked, record.Status)
	assert.Nil(t, record.ERPRef)
	assert.Nil(t, record.LedgerRef)
	assert.Nil(t, record.SyncConfig)
	assert.Nil(t, record.ConfirmedAt)
	assert.Empty(t, record.Conflicts)
	assert.NotNil(t, record.WebRef, "web reference survives linkage removal")
}

func TestReconciliationRecord_DisplayStatus(t *testing.T) {
	t.Run("LINKED with conflicts renders CONFLICTED", func(t *testing.T) {
		record := linkedRecord(t, webRecord("SKU-1", 101, 5), erpRecord("SKU-1", 100, 5))
		record.ApplyConflicts(DetectConflicts(record))
		assert.Equal(t, DisplayStatusConflicted, record.DisplayStatus())
	})

	t.Run("CONFIRMED with conflicts stays CONFIRMED", func(t *testing.T) {
		record := linkedRecord(t, webRecord("SKU-1", 101, 5), erpRecord("SKU-1", 100, 5))
		require.NoError(t, record.Confirm(validSyncConfig()))
		record.ApplyConflicts(DetectConflicts(record))
		assert.Equal(t, DisplayStatusConfirmed, record.DisplayStatus())
		assert.True(t, record.HasConflicts())
	})

	t.Run("Clean states map one to one", func(t *testing.T) {
		record, _ := NewReconciliationRecord(webRecord("SKU-1", 100, 5))
		assert.Equal(t, DisplayStatusUnlinked, record.DisplayStatus())
	})
}
