package token

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidIssuer = errors.New("invalid issuer")
	ErrWrongUse      = errors.New("wrong token use")
)

// Issuer firma y valida JWTs HS256. Access y refresh usan secretos
// distintos: robar uno no compromete el otro.
type Issuer struct {
	Iss           string
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewIssuer(iss string, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{
		Iss:           iss,
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

// Claims son las claims que nos interesan después de validar.
type Claims struct {
	AccountID string // sub
	Email     string
	JTI       string
	ExpiresAt time.Time
}

// IssueAccess emite un access token (use=access) con sub/email.
func (i *Issuer) IssueAccess(accountID, email string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)
	claims := jwtv5.MapClaims{
		"iss":   i.Iss,
		"sub":   accountID,
		"email": email,
		"use":   "access",
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
		"jti":   uuid.NewString(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(i.AccessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefresh emite un refresh token (use=refresh). Devuelve también el
// jti, que es lo que se persiste (hasheado) para la rotación.
func (i *Issuer) IssueRefresh(accountID string) (signed, jti string, exp time.Time, err error) {
	now := time.Now().UTC()
	exp = now.Add(i.RefreshTTL)
	jti = uuid.NewString()
	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": accountID,
		"use": "refresh",
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
		"jti": jti,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err = tk.SignedString(i.RefreshSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, jti, exp, nil
}

func (i *Issuer) VerifyAccess(raw string) (*Claims, error) {
	return i.verify(raw, i.AccessSecret, "access")
}

func (i *Issuer) VerifyRefresh(raw string) (*Claims, error) {
	return i.verify(raw, i.RefreshSecret, "refresh")
}

func (i *Issuer) verify(raw string, secret []byte, use string) (*Claims, error) {
	tok, err := jwtv5.Parse(raw, func(t *jwtv5.Token) (any, error) {
		return secret, nil
	}, jwtv5.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if i.Iss != "" {
		if iss, _ := mc["iss"].(string); iss != i.Iss {
			return nil, ErrInvalidIssuer
		}
	}
	if got, _ := mc["use"].(string); got != use {
		return nil, ErrWrongUse
	}

	var c Claims
	c.AccountID, _ = mc["sub"].(string)
	c.Email, _ = mc["email"].(string)
	c.JTI, _ = mc["jti"].(string)
	if expf, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(expf), 0)
	}
	if c.AccountID == "" || c.JTI == "" {
		return nil, ErrInvalidToken
	}
	return &c, nil
}
