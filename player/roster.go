package player

import (
	"strings"
)

// MaxSlots is the number of player identities the game knows about.
const MaxSlots = 4

type identity struct {
	id    string
	name  string
	color Color
}

var identities = [MaxSlots]identity{
	{"Q", "Madame Qian", ColorRed},
	{"A", "Uncle Tu", ColorGreen},
	{"S", "Sun Xiaomei", ColorBlue},
	{"J", "Jin Beibei", ColorYellow},
}

// SlotByID maps a one-letter id (case-insensitive) to its slot.
func SlotByID(id string) (int, bool) {
	for i, ident := range identities {
		if strings.EqualFold(ident.id, id) {
			return i, true
		}
	}
	return -1, false
}

// IdentityName returns the display name of a slot.
func IdentityName(slot int) string {
	if slot < 0 || slot >= MaxSlots {
		return ""
	}
	return identities[slot].name
}

// IdentityID returns the one-letter id of a slot.
func IdentityID(slot int) string {
	if slot < 0 || slot >= MaxSlots {
		return ""
	}
	return identities[slot].id
}

// Roster owns every player. Seated lists slots in rotation order.
type Roster struct {
	slots  [MaxSlots]Player
	seated []int
}

func NewRoster() *Roster {
	r := &Roster{}
	for i := range r.slots {
		r.slots[i].Index = i
	}
	return r
}

// Add creates the player in slot and appends it to the rotation.
func (r *Roster) Add(slot int) (*Player, error) {
	if slot < 0 || slot >= MaxSlots {
		return nil, ErrSlotRange
	}
	p := &r.slots[slot]
	if err := p.Create(slot, len(r.seated)); err != nil {
		return nil, err
	}
	r.seated = append(r.seated, slot)
	return p, nil
}

// Remove destroys the player in slot and renumbers the remaining sequence.
func (r *Roster) Remove(slot int) error {
	if slot < 0 || slot >= MaxSlots {
		return ErrSlotRange
	}
	if err := r.slots[slot].Destroy(); err != nil {
		return err
	}
	for i, s := range r.seated {
		if s == slot {
			r.seated = append(r.seated[:i], r.seated[i+1:]...)
			break
		}
	}
	for i, s := range r.seated {
		r.slots[s].Seq = i
	}
	return nil
}

// Get returns the valid player in slot, or nil.
func (r *Roster) Get(slot int) *Player {
	if slot < 0 || slot >= MaxSlots {
		return nil
	}
	p := &r.slots[slot]
	if !p.Valid {
		return nil
	}
	return p
}

// ByID finds a seated player by its one-letter id.
func (r *Roster) ByID(id string) *Player {
	slot, ok := SlotByID(id)
	if !ok {
		return nil
	}
	return r.Get(slot)
}

// Seated returns the rotation order as slots.
func (r *Roster) Seated() []int {
	out := make([]int, len(r.seated))
	copy(out, r.seated)
	return out
}

func (r *Roster) Count() int {
	return len(r.seated)
}

// At returns the player at rotation sequence seq. A nil or invalid entry
// means the rotation list is corrupted.
func (r *Roster) At(seq int) *Player {
	if seq < 0 || seq >= len(r.seated) {
		return nil
	}
	return r.Get(r.seated[seq])
}

// Players returns seated players in rotation order.
func (r *Roster) Players() []*Player {
	out := make([]*Player, 0, len(r.seated))
	for _, s := range r.seated {
		out = append(out, &r.slots[s])
	}
	return out
}
