package combat

// Stats holds one combatant's vitals and the attributes that feed the
// initiative formula. The scheduler reads Speed, Agility, and
// InitiativeStaticBonus during queue construction and refreshes ActionPoints
// at each turn start; everything else is owned by the surrounding rules.
type Stats struct {
	Health                int
	MaxHealth             int
	ActionPoints          int
	MaxActionPoints       int
	Speed                 int
	Agility               int
	InitiativeStaticBonus int
}

// InitiativeSeed returns the deterministic per-combatant contribution to an
// initiative roll: 2*Speed + Agility + InitiativeStaticBonus. Pure function
// of the stats; no side effects.
//
// Postcondition: Equal Stats values always produce equal seeds.
func (s *Stats) InitiativeSeed() int {
	return 2*s.Speed + s.Agility + s.InitiativeStaticBonus
}

// RefreshActionPoints restores action points to the per-turn maximum.
// Called by the scheduler when a combatant's turn starts.
//
// Postcondition: ActionPoints == MaxActionPoints.
func (s *Stats) RefreshActionPoints() {
	s.ActionPoints = s.MaxActionPoints
}

// SpendActionPoints deducts cost from the current action points, flooring at
// zero. Reports whether the full cost was available.
//
// Precondition: cost >= 0.
// Postcondition: ActionPoints >= 0.
func (s *Stats) SpendActionPoints(cost int) bool {
	if cost > s.ActionPoints {
		s.ActionPoints = 0
		return false
	}
	s.ActionPoints -= cost
	return true
}

// ApplyDamage reduces Health by amount, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: Health >= 0.
func (s *Stats) ApplyDamage(amount int) {
	s.Health -= amount
	if s.Health < 0 {
		s.Health = 0
	}
}

// IsDown reports whether this combatant has been reduced to zero health and
// no longer takes turns.
func (s *Stats) IsDown() bool {
	return s.Health <= 0
}

// clamp enforces the stats invariants in place: health within [0, MaxHealth]
// and action points within [0, MaxActionPoints].
func (s *Stats) clamp() {
	if s.Health < 0 {
		s.Health = 0
	}
	if s.Health > s.MaxHealth {
		s.Health = s.MaxHealth
	}
	if s.ActionPoints < 0 {
		s.ActionPoints = 0
	}
	if s.ActionPoints > s.MaxActionPoints {
		s.ActionPoints = s.MaxActionPoints
	}
}
