package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a clear-text password for storage.
func HashPassword(clearText string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(clearText), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether clearText matches the stored hash.
func CheckPassword(hash, clearText string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(clearText)) == nil
}
