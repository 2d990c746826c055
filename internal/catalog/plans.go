package catalog

// Plan is a subscription plan. An empty AvailableSports list means the plan
// covers every sport.
type Plan struct {
	Name            string
	Display         string
	Aliases         []string
	AvailableSports []string
}

// Universal reports whether the plan covers all sports.
func (p Plan) Universal() bool { return len(p.AvailableSports) == 0 }

// Covers reports whether the plan covers the given sport name.
func (p Plan) Covers(sport string) bool {
	if p.Universal() {
		return true
	}
	n := Normalize(sport)
	for _, s := range p.AvailableSports {
		if s == n {
			return true
		}
	}
	return false
}

var plans = []Plan{
	{Name: "completo", Display: "Completo", Aliases: []string{"full", "tutto", "vip"}},
	{Name: "calcio", Display: "Calcio", Aliases: []string{"football", "soccer"}, AvailableSports: []string{"calcio"}},
	{Name: "racchetta", Display: "Racchetta", Aliases: []string{"tennis"}, AvailableSports: []string{"tennis", "basket"}},
	{Name: "exchange", Display: "Exchange", Aliases: []string{"trading"}, AvailableSports: []string{"exchange", "maxexchange"}},
}

// Plans returns the plan table in declaration order.
func Plans() []Plan { return plans }

// FindPlan resolves a token against canonical plan names first, then the
// alias tables.
func FindPlan(token string) (Plan, bool) {
	n := Normalize(token)
	for _, p := range plans {
		if Normalize(p.Name) == n {
			return p, true
		}
	}
	for _, p := range plans {
		for _, a := range p.Aliases {
			if Normalize(a) == n {
				return p, true
			}
		}
	}
	return Plan{}, false
}
