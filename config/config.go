package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Game     Rules          `mapstructure:"game"`
	Board    BoardConfig    `mapstructure:"board"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Server   ServerConfig   `mapstructure:"server"`
	Debug    bool           `mapstructure:"debug"`
}

// Rules are the game policy knobs consumed by the turn engine.
type Rules struct {
	StartingFunds  int  `mapstructure:"starting_funds"`
	MinFunds       int  `mapstructure:"min_funds"`
	MaxFunds       int  `mapstructure:"max_funds"`
	DiceFaces      int  `mapstructure:"dice_faces"`
	SellLimit      int  `mapstructure:"sell_limit"`
	TollDivisor    int  `mapstructure:"toll_divisor"`
	BankruptAtZero bool `mapstructure:"bankrupt_at_zero"`
	InventoryCap   int  `mapstructure:"inventory_cap"`
	ManualSkip     bool `mapstructure:"manual_skip"`
	PrisonRounds   int  `mapstructure:"prison_rounds"`
	HospitalRounds int  `mapstructure:"hospital_rounds"`
	MagicRounds    int  `mapstructure:"magic_rounds"`
	RobotRange     int  `mapstructure:"robot_range"`
	DumpOnExit     bool `mapstructure:"dump_on_exit"`

	Items ItemRules `mapstructure:"items"`
	Gifts GiftRules `mapstructure:"gifts"`
}

type ItemRules struct {
	Block ItemRule `mapstructure:"block"`
	Bomb  ItemRule `mapstructure:"bomb"`
	Robot ItemRule `mapstructure:"robot"`
}

type ItemRule struct {
	Price  int  `mapstructure:"price"`
	OnSale bool `mapstructure:"on_sale"`
	// Range is the placement reach in either direction; unused for robots.
	Range int `mapstructure:"range"`
}

type GiftRules struct {
	Money     int `mapstructure:"money"`
	Points    int `mapstructure:"points"`
	GodRounds int `mapstructure:"god_rounds"`
}

type BoardConfig struct {
	// Layout is a YAML layout file; empty selects the built-in map.
	Layout string `mapstructure:"layout"`
	Render bool   `mapstructure:"render"`
}

type StorageConfig struct {
	// Driver is one of "", "sqlite", "postgres" or "gorm".
	Driver   string         `mapstructure:"driver"`
	Path     string         `mapstructure:"path"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type SnapshotConfig struct {
	// Backend is one of "", "file", "redis" or "db".
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	RedisAddr string `mapstructure:"redis_addr"`
}

type ServerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	HTTPAddress  string `mapstructure:"http_address"`
	RPCAddress   string `mapstructure:"rpc_address"`
	IdleTimeoutS int    `mapstructure:"idle_timeout_s"`
}

// DefaultRules mirrors the classic board game values.
func DefaultRules() Rules {
	return Rules{
		StartingFunds:  10000,
		MinFunds:       1000,
		MaxFunds:       50000,
		DiceFaces:      6,
		SellLimit:      1,
		TollDivisor:    2,
		InventoryCap:   10,
		PrisonRounds:   3,
		HospitalRounds: 4,
		MagicRounds:    2,
		RobotRange:     10,
		Items: ItemRules{
			Block: ItemRule{Price: 50, OnSale: true, Range: 10},
			Bomb:  ItemRule{Price: 50, OnSale: true, Range: 10},
			Robot: ItemRule{Price: 30, OnSale: true},
		},
		Gifts: GiftRules{Money: 2000, Points: 200, GodRounds: 5},
	}
}

func setDefaults(v *viper.Viper) {
	r := DefaultRules()
	v.SetDefault("game.starting_funds", r.StartingFunds)
	v.SetDefault("game.min_funds", r.MinFunds)
	v.SetDefault("game.max_funds", r.MaxFunds)
	v.SetDefault("game.dice_faces", r.DiceFaces)
	v.SetDefault("game.sell_limit", r.SellLimit)
	v.SetDefault("game.toll_divisor", r.TollDivisor)
	v.SetDefault("game.bankrupt_at_zero", r.BankruptAtZero)
	v.SetDefault("game.inventory_cap", r.InventoryCap)
	v.SetDefault("game.manual_skip", r.ManualSkip)
	v.SetDefault("game.prison_rounds", r.PrisonRounds)
	v.SetDefault("game.hospital_rounds", r.HospitalRounds)
	v.SetDefault("game.magic_rounds", r.MagicRounds)
	v.SetDefault("game.robot_range", r.RobotRange)
	v.SetDefault("game.dump_on_exit", r.DumpOnExit)
	v.SetDefault("game.items.block.price", r.Items.Block.Price)
	v.SetDefault("game.items.block.on_sale", r.Items.Block.OnSale)
	v.SetDefault("game.items.block.range", r.Items.Block.Range)
	v.SetDefault("game.items.bomb.price", r.Items.Bomb.Price)
	v.SetDefault("game.items.bomb.on_sale", r.Items.Bomb.OnSale)
	v.SetDefault("game.items.bomb.range", r.Items.Bomb.Range)
	v.SetDefault("game.items.robot.price", r.Items.Robot.Price)
	v.SetDefault("game.items.robot.on_sale", r.Items.Robot.OnSale)
	v.SetDefault("game.gifts.money", r.Gifts.Money)
	v.SetDefault("game.gifts.points", r.Gifts.Points)
	v.SetDefault("game.gifts.god_rounds", r.Gifts.GodRounds)

	v.SetDefault("board.layout", "")
	v.SetDefault("board.render", true)

	v.SetDefault("storage.driver", "")
	v.SetDefault("storage.path", "monopoly.db")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)

	v.SetDefault("snapshot.backend", "file")
	v.SetDefault("snapshot.dir", "snapshots")
	v.SetDefault("snapshot.redis_addr", "localhost:6379")

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.idle_timeout_s", 120)

	v.SetDefault("debug", false)
}

// LoadConfig reads config.yaml from path. A missing file is not an error:
// defaults and MONOPOLY_* environment variables still apply.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("monopoly")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	return
}
