package config

import "log/slog"

const (
	LangEN = "en"
	LangZH = "zh"
)

func GetLocaleConfig(lang string) string {
	switch lang {
	case LangEN:
		return LangEN
	case LangZH:
		return LangZH
	default:
		slog.Warn("unsupported language, falling back to english", "language", lang)
		return LangEN
	}
}
