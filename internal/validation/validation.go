// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"
)

// MinPasswordLength — минимальная допустимая длина пароля.
const MinPasswordLength = 8

// IsValidEmail проверяет, что строка похожа на адрес электронной почты:
// непустая локальная часть, один символ @, домен с точкой.
func IsValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t") {
		return false
	}

	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}

	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}

	return true
}

// IsStrongPassword проверяет надёжность пароля: не короче MinPasswordLength
// символов и содержит хотя бы одну букву и одну цифру.
func IsStrongPassword(password string) bool {
	if len(password) < MinPasswordLength {
		return false
	}

	var hasLetter, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	return hasLetter && hasDigit
}
