package auth

import (
	"fmt"

	"github.com/Daskott/agenda/server/auth/key"
	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only reads the first 72 bytes of a password
const MAX_PASSWORD_BYTES = 72

// HashCost is the bcrypt cost used by HashPassword
var HashCost = 14

var ErrPasswordTooLong = fmt.Errorf("password is longer than %v bytes", MAX_PASSWORD_BYTES)

type AgendaTokenClaims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

func HashPassword(password string) (string, error) {
	if len(password) > MAX_PASSWORD_BYTES {
		return "", ErrPasswordTooLong
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	if len(password) > MAX_PASSWORD_BYTES {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func EncodeJWT(claims AgendaTokenClaims, keyPair *key.KeyPair) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod("RS256"), claims)
	token.Header["kid"] = keyPair.Kid

	tokenString, err := token.SignedString(keyPair.PrivateKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func DecodeJWT(tokenString string, keyPair *key.KeyPair) (*AgendaTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AgendaTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return keyPair.PublicKey, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid jwt: %v", err)
	}

	tokenClaims, ok := token.Claims.(*AgendaTokenClaims)
	if !ok {
		return nil, fmt.Errorf("unable to assert token.Claims to AgendaTokenClaims")
	}

	return tokenClaims, nil
}
