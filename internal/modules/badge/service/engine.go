package badge

import (
	"github.com/sirupsen/logrus"
)

// Engine evaluates a fixed catalog. It is pure: the same counters and unlocked
// set always give the same result.
type Engine struct {
	catalog []Definition
	byID    map[string]Definition
	log     logrus.FieldLogger
}

func NewEngine(catalog []Definition, log logrus.FieldLogger) *Engine {
	byID := make(map[string]Definition, len(catalog))
	for _, d := range catalog {
		byID[d.ID] = d
	}
	return &Engine{catalog: catalog, byID: byID, log: log}
}

func (e *Engine) Catalog() []Definition {
	return e.catalog
}

func (e *Engine) Definition(id string) (Definition, bool) {
	d, ok := e.byID[id]
	return d, ok
}

// Evaluate returns, in catalog order, the ids of badges whose predicate holds
// and which are not in alreadyUnlocked. Malformed definitions are skipped.
func (e *Engine) Evaluate(counters UserCounters, alreadyUnlocked []string) []string {
	unlocked := make(map[string]struct{}, len(alreadyUnlocked))
	for _, id := range alreadyUnlocked {
		unlocked[id] = struct{}{}
	}

	newly := []string{}
	for _, d := range e.catalog {
		if _, done := unlocked[d.ID]; done {
			continue
		}
		ok, err := d.Evaluate(counters)
		if err != nil {
			e.log.WithError(err).WithField("badge_id", d.ID).Warn("skipping badge definition")
			continue
		}
		if ok {
			newly = append(newly, d.ID)
			// Duplicate ids in the catalog unlock once.
			unlocked[d.ID] = struct{}{}
		}
	}
	return newly
}
