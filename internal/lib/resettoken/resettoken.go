// Package resettoken генерирует одноразовые секреты восстановления пароля
// и их отпечатки. Секрет выдаётся пользователю один раз, в хранилище
// остаётся только отпечаток: повторное использование не проходит по поиску.
package resettoken

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// secretLen — длина случайного секрета в байтах (256 бит энтропии).
const secretLen = 32

// Generate возвращает случайный секрет и его отпечаток.
// Секрет предназначен для однократной доставки получателю,
// отпечаток — для хранения на учётной записи.
func Generate() (secret, fingerprint string, err error) {
	const op = "resettoken.Generate"
	buf := make([]byte, secretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	secret = hex.EncodeToString(buf)
	return secret, Fingerprint(secret), nil
}

// Fingerprint возвращает детерминированный односторонний отпечаток секрета.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Matches проверяет, соответствует ли секрет сохранённому отпечатку.
// Сравнение выполняется за постоянное время.
func Matches(candidateSecret, storedFingerprint string) bool {
	computed := Fingerprint(candidateSecret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedFingerprint)) == 1
}
