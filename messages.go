package server

import (
	"purrfect-run/server/internal/buildagg"
	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/run"
)

type joinResponse struct {
	Ver        int             `json:"ver"`
	ID         string          `json:"id"`
	State      run.View        `json:"state"`
	Characters []characterInfo `json:"characters"`
	MetaShop   metaShopInfo    `json:"metaShop"`
	Resumed    bool            `json:"resumed,omitempty"`
}

type stateMessage struct {
	Ver        int      `json:"ver"`
	Type       string   `json:"type"`
	Tick       uint64   `json:"t"`
	State      run.View `json:"state"`
	ServerTime int64    `json:"serverTime"`
}

// characterInfo is the selectable-roster entry sent on join.
type characterInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty,omitempty"`
}

// metaShopInfo lists the soul-priced permanent purchases with current
// levels and next prices.
type metaShopInfo struct {
	Upgrades []metaUpgradeInfo `json:"upgrades"`
	Nodes    []metaNodeInfo    `json:"nodes"`
}

type metaUpgradeInfo struct {
	ID       string `json:"id"`
	Level    int    `json:"level"`
	MaxLevel int    `json:"maxLevel,omitempty"`
	NextCost int    `json:"nextCost"`
}

type metaNodeInfo struct {
	ID           string `json:"id"`
	Archetype    string `json:"archetype"`
	Level        int    `json:"level"`
	MaxLevel     int    `json:"maxLevel"`
	CostPerLevel int    `json:"costPerLevel"`
}

type diagnosticsPlayer struct {
	Ver           int    `json:"ver"`
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
	RunActive     bool   `json:"runActive"`
}

func characterRoster() []characterInfo {
	specs := content.Characters()
	roster := make([]characterInfo, 0, len(specs))
	for _, spec := range specs {
		roster = append(roster, characterInfo{ID: spec.ID, Name: spec.Name, Difficulty: spec.Difficulty})
	}
	return roster
}

func metaShopFor(levels map[string]int, upgradeCost func(content.MetaUpgradeSpec, int) int) metaShopInfo {
	upgrades := make([]metaUpgradeInfo, 0, len(content.MetaUpgrades()))
	for _, spec := range content.MetaUpgrades() {
		level := levels[spec.ID]
		upgrades = append(upgrades, metaUpgradeInfo{
			ID:       spec.ID,
			Level:    level,
			MaxLevel: spec.MaxLevel,
			NextCost: upgradeCost(spec, level),
		})
	}
	nodes := make([]metaNodeInfo, 0, len(content.MetaNodes()))
	for _, node := range content.MetaNodes() {
		nodes = append(nodes, nodeInfo(node, levels[node.ID]))
	}
	return metaShopInfo{Upgrades: upgrades, Nodes: nodes}
}

func nodeInfo(node buildagg.MetaNode, level int) metaNodeInfo {
	return metaNodeInfo{
		ID:           node.ID,
		Archetype:    node.Archetype,
		Level:        level,
		MaxLevel:     node.MaxLevel,
		CostPerLevel: node.CostPerLevel,
	}
}
