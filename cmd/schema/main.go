package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"purrfect-run/server/internal/buildagg"
	"purrfect-run/server/internal/content"
)

// contentDocument is the reflected shape of the designer-authored content
// tables: the generated schema validates external authoring of the same
// data the binary compiles in.
type contentDocument struct {
	Minions      []content.EnemyTemplate   `json:"minions"`
	Bosses       []content.EnemyTemplate   `json:"bosses"`
	RewardCards  []content.RewardCard      `json:"rewardCards"`
	BuildBonuses []content.BuildBonus      `json:"buildBonuses"`
	MetaNodes    []buildagg.MetaNode       `json:"metaNodes"`
	MetaUpgrades []content.MetaUpgradeSpec `json:"metaUpgrades"`
	ShopItems    []content.ShopItem        `json:"shopItems"`
	Skills       []content.SkillSpec       `json:"skills"`
	Characters   []content.CharacterSpec   `json:"characters"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema := buildSchema()

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(contentDocument))
	schema.Title = "Purrfect Run Content Tables"
	schema.Description = "Validates designer-authored content: enemies, reward cards, build bonuses, meta nodes, shop items, skills, and characters."
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
