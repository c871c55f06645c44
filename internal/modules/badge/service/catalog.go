package badge

import "fmt"

type tier struct {
	kind        Kind
	idPrefix    string
	name        string // fmt pattern taking the threshold
	description string // fmt pattern taking the threshold
	thresholds  []float64
}

var tiers = []tier{
	{KindWorkoutCount, "workouts", "%v Treinos", "Complete %v treinos",
		[]float64{1, 5, 10, 25, 50, 75, 100, 200, 300, 500, 1000}},
	{KindStreak, "streak", "Sequência de %v dias", "Treine %v dias seguidos",
		[]float64{2, 3, 5, 7, 10, 14, 21, 30, 50, 60, 90, 100, 180, 365}},
	{KindVolume, "volume", "%v kg levantados", "Levante %v kg no total",
		[]float64{500, 1000, 2000, 5000, 10000, 20000, 50000, 100000, 200000, 500000}},
	{KindPersonalRecords, "pr", "%v Recordes", "Bata %v recordes pessoais",
		[]float64{1, 3, 5, 10, 20, 50, 100}},
	{KindGoalsAchieved, "goals", "%v Metas", "Alcance %v metas",
		[]float64{1, 3, 5, 10, 20, 50}},
	{KindWorkoutsWeek, "week", "%v na Semana", "Faça %v treinos em uma semana",
		[]float64{3, 5, 7}},
	{KindWorkoutsMonth, "month", "%v no Mês", "Faça %v treinos em um mês",
		[]float64{12, 20, 30}},
	{KindWorkoutsYear, "year", "%v no Ano", "Faça %v treinos em um ano",
		[]float64{100, 200, 300}},
	{KindExerciseRepeat, "exercise_repeat", "Especialista %v", "Registre o mesmo exercício %v vezes",
		[]float64{10, 50, 100}},
	{KindEarlyBird, "early_bird", "Madrugador %v", "Comece %v treinos antes das 7h",
		[]float64{1, 10, 50}},
	{KindNightOwl, "night_owl", "Coruja %v", "Comece %v treinos depois das 21h",
		[]float64{1, 10, 50}},
	{KindWeekend, "weekend", "Guerreiro de Fim de Semana %v", "Faça %v treinos no fim de semana",
		[]float64{10, 50}},
	{KindPhotoCount, "photos", "%v Fotos", "Envie %v fotos de progresso",
		[]float64{1, 10, 50}},
	{KindTemplateCount, "templates", "%v Modelos", "Crie %v modelos de treino",
		[]float64{1, 5, 10}},
}

var liftTiers = []struct {
	exercise   string
	label      string
	thresholds []float64
}{
	{"supino", "Supino", []float64{60, 80, 100, 120}},
	{"agachamento", "Agachamento", []float64{80, 100, 140, 180}},
	{"levantamento_terra", "Levantamento Terra", []float64{100, 140, 180, 220}},
}

// DefaultCatalog returns the built-in badge catalog in display order.
func DefaultCatalog() []Definition {
	var defs []Definition
	for _, t := range tiers {
		for _, threshold := range t.thresholds {
			defs = append(defs, Definition{
				ID:          fmt.Sprintf("%s_%v", t.idPrefix, threshold),
				Name:        fmt.Sprintf(t.name, threshold),
				Description: fmt.Sprintf(t.description, threshold),
				Kind:        t.kind,
				Threshold:   threshold,
			})
		}
	}

	for _, lift := range liftTiers {
		for _, threshold := range lift.thresholds {
			defs = append(defs, Definition{
				ID:          fmt.Sprintf("%s_%v", lift.exercise, threshold),
				Name:        fmt.Sprintf("%s %vkg", lift.label, threshold),
				Description: fmt.Sprintf("Faça uma série de %s com %v kg", lift.label, threshold),
				Kind:        KindExerciseWeight,
				Threshold:   threshold,
				Exercise:    lift.exercise,
			})
		}
	}

	defs = append(defs, Definition{
		ID:          "full_body",
		Name:        "Corpo Inteiro",
		Description: "Trabalhe peito, costas, pernas, ombros e braços no mesmo treino",
		Kind:        KindFullBody,
		Threshold:   1,
	})

	return defs
}
