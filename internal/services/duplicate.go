// Package services – duplicate resolver
//
// A pending record is considered a likely duplicate when the catalog already
// holds a record with the same name AND brand under Unicode case folding
// (empty brand matches empty brand). The flag is a warning for the user, not
// a constraint: flagged records are still saved.
//
// Resolution runs against the catalog as it stood before the batch is merged;
// records within one batch are not cross-checked against each other.
package services

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/ownly/go-vault-backend/internal/domain"
)

// identityKey builds the case-folded (name, brand) identity used by the
// duplicate heuristic. A NUL separator keeps ("ab","c") distinct from
// ("a","bc").
func identityKey(name, brand string) string {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(name)) + "\x00" + fold.String(strings.TrimSpace(brand))
}

// AnnotateDuplicates sets IsDuplicate on each pending record that collides
// with an existing catalog record. It returns the same slice for chaining.
func AnnotateDuplicates(batch []domain.PendingRecord, catalog []domain.InventoryRecord) []domain.PendingRecord {
	if len(batch) == 0 {
		return batch
	}

	existing := make(map[string]struct{}, len(catalog))
	for _, rec := range catalog {
		existing[identityKey(rec.Name, rec.Brand)] = struct{}{}
	}

	for i := range batch {
		_, dup := existing[identityKey(batch[i].Name, batch[i].Brand)]
		batch[i].IsDuplicate = dup
	}
	return batch
}
