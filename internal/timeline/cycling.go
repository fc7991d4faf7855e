package timeline

// Cycling counts how often each status was re-entered after being left.
type Cycling struct {
	Count         map[string]int `json:"count"`
	TotalRevisits int            `json:"totalRevisits"`
}

// DetectCycling folds over the transitions. The first entry into a status
// records it with zero revisits; every later entry counts as a revisit.
// Transitions into an empty status are ignored.
func DetectCycling(transitions []Transition) Cycling {
	acc := Cycling{Count: make(map[string]int)}
	for _, t := range transitions {
		acc = acc.visit(t.ToStatus)
	}
	return acc
}

func (c Cycling) visit(status string) Cycling {
	if status == "" {
		return c
	}
	if _, seen := c.Count[status]; !seen {
		c.Count[status] = 0
		return c
	}
	c.Count[status]++
	c.TotalRevisits++
	return c
}
