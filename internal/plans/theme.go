package plans

// Theme is the visual descriptor a plan type maps to. It is pure data —
// class name and CSS variables — so callers decide how to apply it.
type Theme struct {
	ClassName string
	Variables map[string]string
}

var themes = map[string]Theme{
	"cardio": {
		ClassName: "plan-cardio",
		Variables: map[string]string{
			"--plan-primary":   "#e74c3c",
			"--plan-secondary": "#fceae8",
			"--plan-accent":    "#c0392b",
		},
	},
	"diabetes": {
		ClassName: "plan-diabetes",
		Variables: map[string]string{
			"--plan-primary":   "#9b59b6",
			"--plan-secondary": "#f4ecf7",
			"--plan-accent":    "#8e44ad",
		},
	},
	"nutricion": {
		ClassName: "plan-nutricion",
		Variables: map[string]string{
			"--plan-primary":   "#27ae60",
			"--plan-secondary": "#e9f7ef",
			"--plan-accent":    "#1e8449",
		},
	},
	"maternidad": {
		ClassName: "plan-maternidad",
		Variables: map[string]string{
			"--plan-primary":   "#e91e63",
			"--plan-secondary": "#fce4ec",
			"--plan-accent":    "#c2185b",
		},
	},
}

var defaultTheme = Theme{
	ClassName: "plan-general",
	Variables: map[string]string{
		"--plan-primary":   "#3498db",
		"--plan-secondary": "#eaf4fb",
		"--plan-accent":    "#2980b9",
	},
}

// ForPlan maps a plan type to its theme. Unknown or empty types get the
// default theme.
func ForPlan(planType string) Theme {
	if t, ok := themes[planType]; ok {
		return t
	}
	return defaultTheme
}
