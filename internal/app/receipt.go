package app

import (
	"errors"
	"fmt"
	"time"

	"grim/internal/domain"

	"github.com/form3tech-oss/jwt-go"
	uuid "github.com/satori/go.uuid"
)

// ReceiptService signs finished-match summaries so a result can be audited
// and the match replayed from its seed.
type ReceiptService struct {
	secret string
	issuer string
	now    func() time.Time
}

// Receipt is the verified content of a match receipt.
type Receipt struct {
	ID       string
	MatchID  string
	Seed     string
	Deals    int
	Scores   domain.TeamScores
	Standing domain.Standing
	IssuedAt time.Time
}

var (
	ErrReceiptConfig   = errors.New("receipt service config is incomplete")
	ErrMatchNotOver    = errors.New("match is not over")
	ErrInvalidReceipt  = errors.New("invalid match receipt")
	ErrReceiptIssuer   = errors.New("receipt issuer mismatch")
	ErrReceiptMismatch = errors.New("receipt does not match replay")
)

func NewReceiptService(secret, issuer string) *ReceiptService {
	return &ReceiptService{
		secret: secret,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue signs an HS256 receipt for a finished match.
func (s *ReceiptService) Issue(matchID string, m domain.Match) (string, error) {
	if s == nil {
		return "", fmt.Errorf("receipt service is nil")
	}
	if s.secret == "" || s.issuer == "" {
		return "", ErrReceiptConfig
	}
	if !m.Over() {
		return "", ErrMatchNotOver
	}

	claims := jwt.MapClaims{
		"iss":      s.issuer,
		"sub":      matchID,
		"iat":      s.now().Unix(),
		"jti":      uuid.NewV4().String(),
		"seed":     m.Seed,
		"deals":    m.Config.Deals,
		"ns":       m.Scores[domain.TeamNS],
		"ew":       m.Scores[domain.TeamEW],
		"standing": string(m.Standing()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks the signature and issuer and decodes the receipt.
func (s *ReceiptService) Verify(tokenString string) (Receipt, error) {
	if s == nil || s.secret == "" {
		return Receipt{}, ErrReceiptConfig
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrInvalidReceipt, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Receipt{}, ErrInvalidReceipt
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return Receipt{}, ErrReceiptIssuer
	}

	r := Receipt{
		ID:       stringClaim(claims, "jti"),
		MatchID:  stringClaim(claims, "sub"),
		Seed:     stringClaim(claims, "seed"),
		Deals:    intClaim(claims, "deals"),
		Standing: domain.Standing(stringClaim(claims, "standing")),
		Scores:   domain.TeamScores{intClaim(claims, "ns"), intClaim(claims, "ew")},
		IssuedAt: time.Unix(int64(intClaim(claims, "iat")), 0),
	}
	if r.Seed == "" || r.Deals < 1 {
		return Receipt{}, fmt.Errorf("%w: missing seed or deal count", ErrInvalidReceipt)
	}
	return r, nil
}

// Matches reports whether a replayed match reproduces the receipt.
func (r Receipt) Matches(m domain.Match) error {
	if !m.Over() {
		return ErrMatchNotOver
	}
	if m.Seed != r.Seed || m.Config.Deals != r.Deals || m.Scores != r.Scores || m.Standing() != r.Standing {
		return fmt.Errorf("%w: replay %s, receipt %s", ErrReceiptMismatch, m.Scores, r.Scores)
	}
	return nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return v
}

// intClaim reads a numeric claim; JSON numbers decode as float64.
func intClaim(claims jwt.MapClaims, name string) int {
	switch v := claims[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
