package content

import (
	"fmt"

	"purrfect-run/server/internal/buildagg"
)

// metaNodes are the permanent upgrades bought with Cat Souls. PerLevel
// effects compound per purchased level through the build aggregator.
var metaNodes = []buildagg.MetaNode{
	{ID: "meta.burst.clickBase", Archetype: ArchetypeBurst, MaxLevel: 10, PerLevel: buildagg.Effects{ClickMult: 1.05}, CostPerLevel: 12},
	{ID: "meta.burst.critDrive", Archetype: ArchetypeBurst, MaxLevel: 5, PerLevel: buildagg.Effects{CritMultPlus: 0.1}, CostPerLevel: 18},
	{ID: "meta.engine.hub", Archetype: ArchetypeEngine, MaxLevel: 12, PerLevel: buildagg.Effects{PpsMult: 1.04}, CostPerLevel: 10},
	{ID: "meta.engine.warmup", Archetype: ArchetypeEngine, MaxLevel: 6, PerLevel: buildagg.Effects{InstantHappyPlus: 0.03}, CostPerLevel: 16},
	{ID: "meta.luck.focus", Archetype: ArchetypeLuck, MaxLevel: 10, PerLevel: buildagg.Effects{CritChancePlus: 0.02}, CostPerLevel: 14},
	{ID: "meta.luck.overflow", Archetype: ArchetypeLuck, MaxLevel: 5, PerLevel: buildagg.Effects{CritMultPlus: 0.15}, CostPerLevel: 22},
	{ID: "meta.tempo.stability", Archetype: ArchetypeTempo, MaxLevel: 8, PerLevel: buildagg.Effects{SkillCdMult: 0.96}, CostPerLevel: 15},
	{ID: "meta.tempo.reservoir", Archetype: ArchetypeTempo, MaxLevel: 6, PerLevel: buildagg.Effects{SkillExtendPerClick: 0.01}, CostPerLevel: 20},
	{ID: "meta.utility.hexWeave", Archetype: ArchetypeUtility, MaxLevel: 9, PerLevel: buildagg.Effects{DotMult: 1.06}, CostPerLevel: 13},
	{ID: "meta.utility.stasis", Archetype: ArchetypeUtility, MaxLevel: 5, PerLevel: buildagg.Effects{EnemyCastSlow: 0.04}, CostPerLevel: 19},
	{ID: "meta.utility.ward", Archetype: ArchetypeUtility, MaxLevel: 4, PerLevel: buildagg.Effects{DrainResist: 0.05}, CostPerLevel: 21},
}

var metaNodeIndex = func() map[string]buildagg.MetaNode {
	index := make(map[string]buildagg.MetaNode, len(metaNodes))
	for _, node := range metaNodes {
		index[node.ID] = node
	}
	return index
}()

// MetaNodes returns the full node table in declaration order.
func MetaNodes() []buildagg.MetaNode {
	return metaNodes
}

// MetaNodeFor fetches a node definition.
func MetaNodeFor(id string) (buildagg.MetaNode, bool) {
	node, ok := metaNodeIndex[id]
	return node, ok
}

// MustMetaNode fetches a node definition or panics on an unknown id.
func MustMetaNode(id string) buildagg.MetaNode {
	node, ok := metaNodeIndex[id]
	if !ok {
		panic(fmt.Sprintf("content: unknown meta node %q", id))
	}
	return node
}
