package main

// Rarity levels for cosmetic items
const (
	RarityCommon    = 0
	RarityRare      = 1
	RarityEpic      = 2
)

// ItemType distinguishes cosmetic categories
const (
	ItemSkin  = "skin"
	ItemTrail = "trail"
)

// StoreItem represents a purchasable cosmetic item
type StoreItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Rarity  int    `json:"rarity"`
	Price   int    `json:"price"` // in credits
	Color1  string `json:"color1"`
	Color2  string `json:"color2"`
	Preview string `json:"preview"`
}

// StoreCatalog is the full list of purchasable items
var StoreCatalog = []StoreItem{
	{ID: "skin_crimson", Name: "Crimson", Type: ItemSkin, Rarity: RarityCommon, Price: 50, Color1: "#ff3333", Color2: "#cc0000", Preview: "Deep red hull plating"},
	{ID: "skin_ocean", Name: "Ocean", Type: ItemSkin, Rarity: RarityCommon, Price: 50, Color1: "#3399ff", Color2: "#0044aa", Preview: "Deep sea blue"},
	{ID: "skin_amber", Name: "Amber", Type: ItemSkin, Rarity: RarityCommon, Price: 75, Color1: "#ff8833", Color2: "#cc4400", Preview: "Warm amber tones"},
	{ID: "skin_gold", Name: "Golden", Type: ItemSkin, Rarity: RarityRare, Price: 150, Color1: "#ffcc00", Color2: "#aa8800", Preview: "Gleaming gold plating"},
	{ID: "skin_ice", Name: "Ice", Type: ItemSkin, Rarity: RarityRare, Price: 150, Color1: "#88ddff", Color2: "#44aacc", Preview: "Frozen crystal coating"},
	{ID: "skin_phantom", Name: "Phantom", Type: ItemSkin, Rarity: RarityEpic, Price: 400, Color1: "#333344", Color2: "#111122", Preview: "Nearly invisible dark hull"},
	{ID: "trail_fire", Name: "Fire Trail", Type: ItemTrail, Rarity: RarityCommon, Price: 75, Color1: "#ff4400", Color2: "#ffaa00", Preview: "Leaves a fiery wake"},
	{ID: "trail_ion", Name: "Ion Trail", Type: ItemTrail, Rarity: RarityRare, Price: 200, Color1: "#00ff88", Color2: "#00ffcc", Preview: "Bright ion glow"},
	{ID: "trail_star", Name: "Stardust Trail", Type: ItemTrail, Rarity: RarityEpic, Price: 500, Color1: "#ffcc00", Color2: "#ffffff", Preview: "Sparkling star particles"},
}

// StoreCatalogMap provides O(1) lookup by item ID
var StoreCatalogMap map[string]StoreItem

func init() {
	StoreCatalogMap = make(map[string]StoreItem, len(StoreCatalog))
	for _, item := range StoreCatalog {
		StoreCatalogMap[item.ID] = item
	}
}

// CreditsPerRun returns the credits earned for a completed run
func CreditsPerRun(score, bonuses int) int {
	return 10 + score/100 + bonuses*3
}
