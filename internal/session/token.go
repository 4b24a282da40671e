package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "crop-catch"

type tokenClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Company   string `json:"company,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (m *Manager) issueToken(id *Identity) (string, error) {
	now := m.now().UTC()
	id.TokenID = uuid.NewString()
	id.IssuedAt = now
	id.ExpiresAt = now.Add(m.ttl)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.TokenID,
			Subject:   id.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(id.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
		},
		Email:     id.Email,
		FullName:  id.Metadata.FullName,
		Company:   id.Metadata.Company,
		AvatarURL: id.Metadata.AvatarURL,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parseToken(raw string) (*Identity, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	id := &Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Metadata: Metadata{
			FullName:  claims.FullName,
			Company:   claims.Company,
			AvatarURL: claims.AvatarURL,
		},
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	return id, nil
}
