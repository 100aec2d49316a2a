package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

func cacheKeyEventDetails(id string) string {
	return fmt.Sprintf("booking:event:%s", id)
}

// cacheKeyList hashes the normalized filter so equal queries share a key.
func cacheKeyList(f ListFilter) string {
	from := ""
	if f.From != nil {
		from = f.From.UTC().Format(time.RFC3339)
	}
	to := ""
	if f.To != nil {
		to = f.To.UTC().Format(time.RFC3339)
	}

	raw := fmt.Sprintf("cat=%s|st=%s|org=%s|loc=%s|q=%s|ps=%d|from=%s|to=%s",
		f.Category, f.Status, f.OrganizerID, f.Location, f.Query, f.PageSize, from, to)

	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("booking:events:list:%s", hex.EncodeToString(hash[:]))
}
