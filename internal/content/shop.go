package content

import "fmt"

// ShopItemKind selects which run stat a purchase raises.
type ShopItemKind string

const (
	ShopItemClick ShopItemKind = "click"
	ShopItemPps   ShopItemKind = "pps"
)

// ShopItem is a run-scoped purchasable. Price compounds by Growth per owned
// copy; Gain is the raw stat increase before the stage-difficulty penalty.
type ShopItem struct {
	ID        string       `json:"id" jsonschema:"title=Shop item id"`
	Name      string       `json:"name"`
	Kind      ShopItemKind `json:"kind" jsonschema:"enum=click,enum=pps"`
	BasePrice float64      `json:"basePrice" jsonschema:"minimum=1"`
	Growth    float64      `json:"growth" jsonschema:"minimum=1"`
	Gain      float64      `json:"gain" jsonschema:"minimum=0"`
}

var shopItems = []ShopItem{
	{ID: "soft_brush", Name: "Soft Brush", Kind: ShopItemClick, BasePrice: 30, Growth: 1.35, Gain: 0.5},
	{ID: "treat_dispenser", Name: "Treat Dispenser", Kind: ShopItemPps, BasePrice: 45, Growth: 1.32, Gain: 0.4},
	{ID: "tower_upgrade", Name: "Tower Upgrade", Kind: ShopItemClick, BasePrice: 120, Growth: 1.4, Gain: 1.2},
	{ID: "auto_cleaner", Name: "Auto Cleaner", Kind: ShopItemPps, BasePrice: 320, Growth: 1.38, Gain: 2.5},
}

var shopItemIndex = func() map[string]ShopItem {
	index := make(map[string]ShopItem, len(shopItems))
	for _, item := range shopItems {
		index[item.ID] = item
	}
	return index
}()

// ShopItems returns the shop table in declaration order.
func ShopItems() []ShopItem {
	return shopItems
}

// ShopItemFor fetches a shop item definition.
func ShopItemFor(id string) (ShopItem, bool) {
	item, ok := shopItemIndex[id]
	return item, ok
}

// MustShopItem fetches a shop item or panics on an unknown id.
func MustShopItem(id string) ShopItem {
	item, ok := shopItemIndex[id]
	if !ok {
		panic(fmt.Sprintf("content: unknown shop item %q", id))
	}
	return item
}
