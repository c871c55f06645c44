package gamification

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"anoa.com/fitsquad/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type Category string

const (
	CategoryStrength    Category = "strength"
	CategoryCardio      Category = "cardio"
	CategoryFlexibility Category = "flexibility"
	CategorySports      Category = "sports"
	CategoryCustom      Category = "custom"
)

// Social bonuses added on top of activity points when stats are rebuilt.
const (
	PointsPostCreated  = 5
	PointsLikeReceived = 2
	PointsCommentMade  = 1
)

const (
	// DefaultMultiplier applies to activity tags missing from the catalog.
	DefaultMultiplier = 1.0
	// VolumeBonusDivisor: strength workouts earn one extra point per 100kg lifted.
	VolumeBonusDivisor = 100.0
)

type ActivityType struct {
	Tag        string   `json:"tag"`
	Category   Category `json:"category"`
	Multiplier float64  `json:"multiplier"`
}

var defaultCatalog = []ActivityType{
	{"musculacao", CategoryStrength, 3.0},
	{"crossfit", CategoryStrength, 3.0},
	{"calistenia", CategoryStrength, 2.5},
	{"funcional", CategoryStrength, 2.5},

	{"cardio", CategoryCardio, 2.0},
	{"corrida", CategoryCardio, 2.5},
	{"caminhada", CategoryCardio, 1.0},
	{"ciclismo", CategoryCardio, 2.0},
	{"natacao", CategoryCardio, 2.5},
	{"hiit", CategoryCardio, 2.5},
	{"remo", CategoryCardio, 2.0},

	{"yoga", CategoryFlexibility, 1.5},
	{"pilates", CategoryFlexibility, 1.5},
	{"alongamento", CategoryFlexibility, 1.0},

	{"futebol", CategorySports, 2.5},
	{"basquete", CategorySports, 2.5},
	{"volei", CategorySports, 2.0},
	{"tenis", CategorySports, 2.0},
	{"luta", CategorySports, 3.0},
	{"danca", CategorySports, 1.5},
}

// Calculator turns a logged activity into points. It holds no mutable state and
// is safe for concurrent use.
type Calculator struct {
	catalog map[string]ActivityType
	log     logrus.FieldLogger
}

// NewCalculator builds the catalog, applying multiplier overrides by tag.
// Overrides for tags outside the built-in catalog register a custom type.
func NewCalculator(overrides map[string]float64, log logrus.FieldLogger) *Calculator {
	catalog := make(map[string]ActivityType, len(defaultCatalog)+len(overrides))
	for _, t := range defaultCatalog {
		catalog[t.Tag] = t
	}
	for tag, multiplier := range overrides {
		tag = normalizeTag(tag)
		t, ok := catalog[tag]
		if !ok {
			t = ActivityType{Tag: tag, Category: CategoryCustom}
		}
		t.Multiplier = multiplier
		catalog[tag] = t
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Calculator{catalog: catalog, log: log}
}

// PointsFor returns round(minutes * multiplier). Unknown tags fail with
// ErrUnknownActivityType.
func (c *Calculator) PointsFor(activityType string, minutes int) (int, error) {
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %d", apperror.ErrInvalidInput, minutes)
	}
	t, ok := c.catalog[normalizeTag(activityType)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", apperror.ErrUnknownActivityType, activityType)
	}
	return roundHalfUp(float64(minutes) * t.Multiplier), nil
}

// PointsForActivity never rejects an activity: unknown tags fall back to
// DefaultMultiplier. Strength activities add a volume bonus.
func (c *Calculator) PointsForActivity(activityType string, minutes int, volumeKg float64) int {
	if minutes <= 0 {
		return 0
	}
	t, ok := c.catalog[normalizeTag(activityType)]
	if !ok {
		c.log.WithField("activity_type", activityType).Warn("unknown activity type, using default multiplier")
		t = ActivityType{Tag: activityType, Multiplier: DefaultMultiplier}
	}

	points := roundHalfUp(float64(minutes) * t.Multiplier)
	if t.Category == CategoryStrength && volumeKg > 0 {
		points += roundHalfUp(volumeKg / VolumeBonusDivisor)
	}
	return points
}

// SocialPoints is the bonus earned from feed interactions.
func SocialPoints(posts, likesReceived, commentsMade int) int {
	return posts*PointsPostCreated + likesReceived*PointsLikeReceived + commentsMade*PointsCommentMade
}

func (c *Calculator) Known(activityType string) bool {
	_, ok := c.catalog[normalizeTag(activityType)]
	return ok
}

func (c *Calculator) Lookup(activityType string) (ActivityType, bool) {
	t, ok := c.catalog[normalizeTag(activityType)]
	return t, ok
}

// Types lists the catalog ordered by category, then tag.
func (c *Calculator) Types() []ActivityType {
	out := make([]ActivityType, 0, len(c.catalog))
	for _, t := range c.catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
