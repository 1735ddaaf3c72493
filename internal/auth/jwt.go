package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates a token that failed signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity payload embedded in issued tokens.
type Claims struct {
	Role   string `json:"role"`
	RoleID int64  `json:"role_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed bearer tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager with the shared secret.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the given account. The jti claim keys the
// revocation list.
func (m *TokenManager) Issue(userID int64, roleTag string, roleID int64) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		Role:   roleTag,
		RoleID: roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Verify parses and validates a token string. The returned error keeps the
// underlying verification failure so the gate can surface the reason.
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	parser := jwt.NewParser(
		jwt.WithIssuer(m.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Identity builds the per-request caller identity from verified claims.
func (c *Claims) Identity() (Identity, error) {
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Identity{}, errors.Join(ErrInvalidToken, err)
	}
	privilege := PrivilegeRole
	if c.Role == SuperuserTag {
		privilege = PrivilegeSuperuser
	}
	id := Identity{
		UserID:    userID,
		Tag:       c.Role,
		RoleID:    c.RoleID,
		Privilege: privilege,
		TokenID:   c.ID,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id, nil
}
