package bracket

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Language string

const (
	LanguagePT Language = "pt"
	LanguageEN Language = "en"
)

type Settings struct {
	Theme                  Theme    `json:"theme"`
	Language               Language `json:"language"`
	HasCompletedOnboarding bool     `json:"hasCompletedOnboarding"`
}

func DefaultSettings() Settings {
	return Settings{
		Theme:    ThemeLight,
		Language: LanguagePT,
	}
}

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

func (l Language) Valid() bool {
	return l == LanguagePT || l == LanguageEN
}
