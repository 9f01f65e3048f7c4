package merger

import (
	"golang-consolidation-service/internal/models"
)

// RecordIndex indexes canonical records by their duplicate and conflict
// keys so merging stays linear in the input size.
type RecordIndex struct {
	// byDuplicateKey maps each duplicate key to the first record seen
	// with it. Later records with the same key are exact duplicates.
	byDuplicateKey map[string]*models.CanonicalRecord

	// byConflictKey maps each conflict key to the distinct duplicate
	// keys seen under it. More than one means an amount conflict.
	byConflictKey map[string]map[string]bool
}

// NewRecordIndex creates an empty index.
func NewRecordIndex() *RecordIndex {
	return &RecordIndex{
		byDuplicateKey: make(map[string]*models.CanonicalRecord),
		byConflictKey:  make(map[string]map[string]bool),
	}
}

// Insert adds a record. It returns the previously indexed record when the
// new one is an exact duplicate, nil when the record is first of its key.
func (idx *RecordIndex) Insert(record *models.CanonicalRecord) *models.CanonicalRecord {
	dupKey := record.DuplicateKey()
	if first, seen := idx.byDuplicateKey[dupKey]; seen {
		return first
	}
	idx.byDuplicateKey[dupKey] = record

	conflictKey := record.ConflictKey()
	keys := idx.byConflictKey[conflictKey]
	if keys == nil {
		keys = make(map[string]bool)
		idx.byConflictKey[conflictKey] = keys
	}
	keys[dupKey] = true
	return nil
}

// IsConflicting reports whether other retained records share the record's
// transaction slot with different amounts.
func (idx *RecordIndex) IsConflicting(record *models.CanonicalRecord) bool {
	return len(idx.byConflictKey[record.ConflictKey()]) > 1
}

// Conflicts counts the transaction slots with more than one retained
// record.
func (idx *RecordIndex) Conflicts() int {
	n := 0
	for _, keys := range idx.byConflictKey {
		if len(keys) > 1 {
			n++
		}
	}
	return n
}
