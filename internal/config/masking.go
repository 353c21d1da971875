package config

import (
	"net/url"
	"strings"
)

// maskSecret маскирует секрет, оставляя только первые 2 и последние 2 символа
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	// Если секрет слишком короткий, маскируем полностью
	if len(secret) < 8 {
		return "***"
	}

	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}

// MaskURL скрывает пароль в URL подключения для вывода в логах и ошибках.
// Строки, которые не разбираются как URL, маскируются целиком.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return maskSecret(raw)
	}
	return u.Redacted()
}
