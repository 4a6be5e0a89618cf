package services

import (
	"errors"
	"strconv"
	"time"

	"village-sabha/internal/adapters/persistence/models"
	"village-sabha/internal/core/domain"
	"village-sabha/internal/pkg/jwt"
	"village-sabha/internal/pkg/password"
)

// CredentialService hashes passwords and issues session tokens
type CredentialService struct {
	secret     string
	issuer     string
	sessionTTL time.Duration
	cost       int
}

// NewCredentialService creates a new credential service
func NewCredentialService(secret, issuer string, sessionTTL time.Duration) *CredentialService {
	return &CredentialService{
		secret:     secret,
		issuer:     issuer,
		sessionTTL: sessionTTL,
		cost:       password.DefaultCost,
	}
}

// WithCost returns a copy hashing with cost. Tests use bcrypt.MinCost.
func (s *CredentialService) WithCost(cost int) *CredentialService {
	c := *s
	c.cost = cost
	return &c
}

// Hash returns a salted bcrypt digest of plain
func (s *CredentialService) Hash(plain string) (string, error) {
	return password.HashWithCost(plain, s.cost)
}

// Verify reports whether plain matches digest
func (s *CredentialService) Verify(plain, digest string) bool {
	return password.Verify(plain, digest)
}

// IssueToken signs a token for subject that expires after ttl
func (s *CredentialService) IssueToken(subject string, role domain.Role, ttl time.Duration) (string, error) {
	return jwt.GenerateToken(subject, string(role), s.secret, s.issuer, ttl)
}

// IssueSession signs a session token for user
func (s *CredentialService) IssueSession(user *models.User) (string, error) {
	return s.IssueToken(strconv.FormatUint(uint64(user.ID), 10), user.Role, s.sessionTTL)
}

// SessionTTL returns the session token lifetime
func (s *CredentialService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// ValidateToken returns the claims of a valid token. Bad signatures,
// expiry and malformed payloads all yield domain.ErrTokenInvalid.
func (s *CredentialService) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateToken(token, s.secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.Unauthorized(domain.CodeTokenInvalid, "token has expired")
		}
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// SubjectID parses the user ID out of claims
func SubjectID(claims *jwt.Claims) (uint, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrTokenInvalid
	}
	return uint(id), nil
}
