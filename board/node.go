package board

import (
	"github.com/wfunc/monopoly/player"
)

type Kind int

const (
	KindInvalid Kind = iota - 1
	KindStart
	KindVacancy
	KindItemShop
	KindGiftShop
	KindMagicShop
	KindHospital
	KindPrison
	KindPark
	KindMine
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindVacancy:
		return "vacancy"
	case KindItemShop:
		return "item house"
	case KindGiftShop:
		return "gift house"
	case KindMagicShop:
		return "magic house"
	case KindHospital:
		return "hospital"
	case KindPrison:
		return "prison"
	case KindPark:
		return "park"
	case KindMine:
		return "mine"
	}
	return "invalid"
}

type Level int

const (
	LevelWasteland Level = iota
	LevelHut
	LevelHouse
	LevelSkyscraper
)

// MaxLevel is the highest estate level.
const MaxLevel = LevelSkyscraper

func (l Level) String() string {
	switch l {
	case LevelWasteland:
		return "wasteland"
	case LevelHut:
		return "hut"
	case LevelHouse:
		return "house"
	case LevelSkyscraper:
		return "skyscraper"
	}
	return "invalid"
}

type Hazard int

const (
	HazardNone Hazard = iota
	HazardBlock
	HazardBomb
)

func (h Hazard) String() string {
	switch h {
	case HazardBlock:
		return "barrier"
	case HazardBomb:
		return "bomb"
	}
	return "none"
}

// Payload is the kind-specific part of a node. The kind is derived from the
// payload type, so the two can never disagree.
type Payload interface {
	Kind() Kind
}

type plain Kind

func (p plain) Kind() Kind { return Kind(p) }

// NoOwner marks an estate nobody holds.
const NoOwner = -1

type Estate struct {
	Price int
	Level Level
	// Owner is a roster slot, or NoOwner.
	Owner int
}

func (*Estate) Kind() Kind { return KindVacancy }

// Value is the current price of the estate: base price times (1 + level).
func (e *Estate) Value() int {
	return e.Price * (1 + int(e.Level))
}

type Offer struct {
	Item   player.Item
	Price  int
	OnSale bool
}

type ItemShop struct {
	Offers   []Offer
	minPrice int
}

func (*ItemShop) Kind() Kind { return KindItemShop }

func newItemShop(offers []Offer) *ItemShop {
	s := &ItemShop{Offers: append([]Offer(nil), offers...)}
	s.recompute()
	return s
}

func (s *ItemShop) recompute() {
	s.minPrice = 0
	for _, o := range s.Offers {
		if !o.OnSale {
			continue
		}
		if s.minPrice == 0 || o.Price < s.minPrice {
			s.minPrice = o.Price
		}
	}
}

// MinPrice is the cheapest on-sale offer, or 0 when nothing is for sale.
func (s *ItemShop) MinPrice() int {
	return s.minPrice
}

// SetOnSale toggles an item and recomputes the minimum price.
func (s *ItemShop) SetOnSale(item player.Item, onSale bool) {
	for i := range s.Offers {
		if s.Offers[i].Item == item {
			s.Offers[i].OnSale = onSale
		}
	}
	s.recompute()
}

// OnSale lists the offers currently for sale.
func (s *ItemShop) OnSale() []Offer {
	var out []Offer
	for _, o := range s.Offers {
		if o.OnSale {
			out = append(out, o)
		}
	}
	return out
}

type GiftKind int

const (
	GiftMoney GiftKind = iota
	GiftPoints
	GiftGod
)

type Gift struct {
	Name   string
	Kind   GiftKind
	Amount int
}

type GiftShop struct {
	Gifts []Gift
}

func (*GiftShop) Kind() Kind { return KindGiftShop }

type Mine struct {
	Points int
}

func (*Mine) Kind() Kind { return KindMine }

// Node is one fixed position on the ring.
type Node struct {
	Index   int
	payload Payload

	hazard Hazard
	// placer is the roster slot that placed the hazard, for attribution only.
	placer int

	occupants []int
}

func (n *Node) Kind() Kind {
	if n.payload == nil {
		return KindInvalid
	}
	return n.payload.Kind()
}

func (n *Node) Payload() Payload { return n.payload }

func (n *Node) Estate() *Estate {
	e, _ := n.payload.(*Estate)
	return e
}

func (n *Node) ItemShop() *ItemShop {
	s, _ := n.payload.(*ItemShop)
	return s
}

func (n *Node) GiftShop() *GiftShop {
	s, _ := n.payload.(*GiftShop)
	return s
}

func (n *Node) Mine() *Mine {
	m, _ := n.payload.(*Mine)
	return m
}

// Hazard returns the item resting on the node and who placed it.
func (n *Node) Hazard() (Hazard, int) {
	return n.hazard, n.placer
}

// Occupants returns roster slots in arrival order.
func (n *Node) Occupants() []int {
	out := make([]int, len(n.occupants))
	copy(out, n.occupants)
	return out
}

func (n *Node) Occupied() bool {
	return len(n.occupants) > 0
}
