package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/quakestream/quakestream/internal/domain"
)

// UnifiedEventID implements spec.md §4.5.3: stable across reruns over the
// same membership, independent of discovery order, and changes if
// membership changes on a later pass.
func UnifiedEventID(members []domain.EventRecord) string {
	uids := make([]string, len(members))
	for i, m := range members {
		uids[i] = m.EventUID
	}
	sort.Strings(uids)

	sum := sha256.Sum256([]byte(strings.Join(uids, "|")))
	return "UE-" + hex.EncodeToString(sum[:])[:16]
}
