package council

// Member is one configured council persona. It is pure configuration data,
// read-only for the process lifetime.
type Member struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Model       string   `json:"model" yaml:"model"`
	Personality string   `json:"personality" yaml:"personality"`
	Traits      []string `json:"traits" yaml:"traits"`
	Role        string   `json:"role" yaml:"role"`
}

// Roster is the ordered set of council members. Order is significant:
// collaboration turns visit members in roster order, and response labels are
// assigned in the same order.
type Roster []Member

// ByName returns the member whose display name matches exactly.
func (r Roster) ByName(name string) (Member, bool) {
	for _, m := range r {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Names returns the display names in roster order.
func (r Roster) Names() []string {
	names := make([]string, len(r))
	for i, m := range r {
		names[i] = m.Name
	}
	return names
}
