package board

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const (
	MaxNodes = 512
	MinWidth = 2
)

type Area struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
	Price int `yaml:"price" json:"price"`
}

type MineSpot struct {
	Pos    int `yaml:"pos" json:"pos"`
	Points int `yaml:"points" json:"points"`
}

// Layout declares where every special node sits; estates fill the areas.
type Layout struct {
	Size  int `yaml:"size"`
	Width int `yaml:"width"`

	Start     []int      `yaml:"start"`
	Hospital  []int      `yaml:"hospital"`
	ItemShop  []int      `yaml:"item_shop"`
	GiftShop  []int      `yaml:"gift_shop"`
	MagicShop []int      `yaml:"magic_shop"`
	Prison    []int      `yaml:"prison"`
	Park      []int      `yaml:"park"`
	Mines     []MineSpot `yaml:"mines"`

	Areas []Area `yaml:"areas"`
}

// DefaultLayout is the classic 70-node map.
func DefaultLayout() Layout {
	return Layout{
		Size:      70,
		Width:     29,
		Start:     []int{0},
		Hospital:  []int{14},
		ItemShop:  []int{28},
		GiftShop:  []int{35},
		Prison:    []int{49},
		MagicShop: []int{63},
		Mines: []MineSpot{
			{64, 60}, {65, 80}, {66, 40}, {67, 100}, {68, 80}, {69, 30},
		},
		Areas: []Area{
			{Start: 0, End: 28, Price: 200},
			{Start: 28, End: 35, Price: 500},
			{Start: 35, End: 64, Price: 300},
		},
	}
}

//go:embed layout.schema.json
var layoutSchema string

// schema compiles the embedded layout schema on first use.
var schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("layout.schema.json", strings.NewReader(layoutSchema)); err != nil {
		return nil, err
	}
	return c.Compile("layout.schema.json")
})

// ParseLayout validates raw YAML against the layout schema and decodes it.
func ParseLayout(raw []byte) (Layout, error) {
	var l Layout

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return l, fmt.Errorf("layout: %w", err)
	}
	// Round-trip through JSON so the validator sees JSON number types.
	b, err := json.Marshal(doc)
	if err != nil {
		return l, fmt.Errorf("layout: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return l, fmt.Errorf("layout: %w", err)
	}
	s, err := schema()
	if err != nil {
		return l, fmt.Errorf("layout schema: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return l, fmt.Errorf("layout: %w", err)
	}

	if err := yaml.Unmarshal(raw, &l); err != nil {
		return l, fmt.Errorf("layout: %w", err)
	}
	return l, nil
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}
	return ParseLayout(raw)
}
