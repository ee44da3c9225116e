package score

// Summary aggregates health scores across a fleet of runbooks.
type Summary struct {
	Count    int
	Overall  float64
	Averages map[CriterionName]float64
}

// Summarize computes fleet averages from individual reports. An empty input
// yields a zero summary rather than an error.
func Summarize(reports []Report) Summary {
	s := Summary{Averages: make(map[CriterionName]float64, len(CriterionOrder))}
	if len(reports) == 0 {
		return s
	}

	s.Count = len(reports)
	for _, r := range reports {
		s.Overall += r.Overall
		for _, name := range CriterionOrder {
			s.Averages[name] += r.Criteria[name].Score
		}
	}

	n := float64(s.Count)
	s.Overall /= n
	for _, name := range CriterionOrder {
		s.Averages[name] /= n
	}
	return s
}
