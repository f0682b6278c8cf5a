package infrastructure

import (
	"encoding/json"
	"fmt"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// MergePatcher applies RFC 7386 merge patches to priced catalog entries.
type MergePatcher struct{}

func NewMergePatcher() *MergePatcher {
	return &MergePatcher{}
}

// Apply returns entry with patch merged over its JSON form. An empty patch is a no-op.
func (MergePatcher) Apply(entry domain.PricedCatalogEntry, patch []byte) (domain.PricedCatalogEntry, error) {
	if len(patch) == 0 {
		return entry, nil
	}

	original, err := json.Marshal(entry)
	if err != nil {
		return entry, err
	}

	modified, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return entry, fmt.Errorf("failed to apply catalog patch: %w", err)
	}

	var updated domain.PricedCatalogEntry
	if err := json.Unmarshal(modified, &updated); err != nil {
		return entry, fmt.Errorf("patched entry is invalid: %w", err)
	}
	return updated, nil
}
