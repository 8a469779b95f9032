package styles

// Themes returns every built-in theme.
func Themes() []*Theme {
	return []*Theme{NewPickpackTheme(), NewLightTheme()}
}

// NewPickpackTheme creates the default dark theme.
func NewPickpackTheme() *Theme {
	return &Theme{
		Name:   "pickpack",
		IsDark: true,

		Primary:   ParseHex("#2E86DE"), // Ocean blue
		Secondary: ParseHex("#10AC84"), // Teal
		Accent:    ParseHex("#48DBFB"), // Cyan

		BgBase:    ParseHex("#1E272E"),
		BgSubtle:  ParseHex("#2F3640"),
		BgOverlay: ParseHex("#3D4852"),

		FgBase:     ParseHex("#F5F6FA"),
		FgMuted:    ParseHex("#A4B0BE"),
		FgSubtle:   ParseHex("#6F7A85"),
		FgInverted: ParseHex("#1E1E1E"),
		FgSelected: ParseHex("#FFFFFF"),

		Border:      ParseHex("#4B6584"),
		BorderFocus: ParseHex("#48DBFB"),

		Success: ParseHex("#27AE60"),
		Error:   ParseHex("#E74C3C"),
		Warning: ParseHex("#F39C12"),
		Info:    ParseHex("#3498DB"),
	}
}

// NewLightTheme creates a theme for light terminals.
func NewLightTheme() *Theme {
	return &Theme{
		Name:   "light",
		IsDark: false,

		Primary:   ParseHex("#1E6FD9"),
		Secondary: ParseHex("#0B8A6A"),
		Accent:    ParseHex("#7C3AED"),

		BgBase:    ParseHex("#FFFFFF"),
		BgSubtle:  ParseHex("#EEF1F4"),
		BgOverlay: ParseHex("#D8DEE6"),

		FgBase:     ParseHex("#1F2933"),
		FgMuted:    ParseHex("#52606D"),
		FgSubtle:   ParseHex("#9AA5B1"),
		FgInverted: ParseHex("#FFFFFF"),
		FgSelected: ParseHex("#000000"),

		Border:      ParseHex("#CBD2D9"),
		BorderFocus: ParseHex("#7C3AED"),

		Success: ParseHex("#1E8E3E"),
		Error:   ParseHex("#C62828"),
		Warning: ParseHex("#B26A00"),
		Info:    ParseHex("#1565C0"),
	}
}
