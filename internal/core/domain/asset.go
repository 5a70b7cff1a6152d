package domain

// Asset is a JSON-LD document ready for publishing.
type Asset map[string]any

// Asset names used as keys of JobResult.Published.
const (
	AssetSourceA = "sourceA"
	AssetSourceB = "sourceB"
	AssetNote    = "note"
)

// KnowledgeAssets groups the documents generated for one comparison.
type KnowledgeAssets struct {
	SourceA Asset `json:"sourceA"`
	SourceB Asset `json:"sourceB"`
	Note    Asset `json:"note"`
}

// NamedAsset pairs an asset with its name.
type NamedAsset struct {
	Name  string
	Asset Asset
}

// Named returns the assets in publishing order, skipping nil documents.
func (k *KnowledgeAssets) Named() []NamedAsset {
	if k == nil {
		return nil
	}
	all := []NamedAsset{
		{Name: AssetSourceA, Asset: k.SourceA},
		{Name: AssetSourceB, Asset: k.SourceB},
		{Name: AssetNote, Asset: k.Note},
	}
	out := make([]NamedAsset, 0, len(all))
	for _, a := range all {
		if a.Asset != nil {
			out = append(out, a)
		}
	}
	return out
}

// PublishedAsset is the reference returned by a publisher.
type PublishedAsset struct {
	UAL     string `json:"ual"`
	AssetID string `json:"assetId,omitempty"`
}
