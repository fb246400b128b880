package validator

import (
	"net/mail"
	"strings"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/usecase"
)

// パスワード最低文字数
const MinPasswordLen = 8

var (
	// 入力が不正
	ErrInvalidInput       = usecase.Validation("email and password are required")
	ErrInvalidEmailFormat = usecase.Validation("invalid email format")
	ErrPasswordTooShort   = usecase.Validation("password too short")
	ErrWeakPassword       = usecase.Validation("weak password")
	ErrNameRequired       = usecase.Validation("name required")
)

// 大文字小文字違いを同じメールとして扱う
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// サインアップの入力を検証。email は NormalizeEmail 済みのもの
func ValidateRegister(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}

	// email形式
	if !isEmailLike(email) {
		return ErrInvalidEmailFormat
	}

	if len(password) < MinPasswordLen {
		return ErrPasswordTooShort
	}

	if isWeakPassword(password) {
		return ErrWeakPassword
	}
	return nil
}

// ログインの入力を検証
func ValidateLogin(email, password string) error {
	// 必須チェック
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrInvalidInput
	}
	return nil
}

// "Name <a@b>" 形式は受け付けない
func isEmailLike(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

var weakPasswords = map[string]struct{}{
	"password":     {},
	"password123":  {},
	"123456789012": {},
	"1234567890":   {},
	"12345678":     {},
	"qwertyuiop":   {},
	"admin123":     {},
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	_, ok := weakPasswords[strings.ToLower(strings.TrimSpace(password))]
	return ok
}
