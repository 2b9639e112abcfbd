package apitest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront-client/internal/domain"
)

const userKey = "apitest.user"

// IssueToken signs an access token for userID that expires after ttl. A
// negative ttl yields an already expired token.
func (s *Server) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// CreateUser registers an account directly, bypassing the HTTP route.
func (s *Server) CreateUser(email, username, password string, admin bool) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := s.byEmail[key]; exists {
		return domain.User{}, domain.ErrConflict
	}
	u := domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		IsAdmin:   admin,
		CreatedAt: domain.NewTimestamp(time.Now()),
	}
	s.users[u.ID] = &userRecord{user: u, hash: hash}
	s.byEmail[key] = u.ID
	return u, nil
}

type registerBody struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
}

func (s *Server) register(c *gin.Context) {
	var in registerBody
	if !bindBody(c, &in) {
		return
	}
	var problems []validationEntry
	if !strings.Contains(in.Email, "@") {
		problems = append(problems, fieldError("email", "value is not a valid email address", "value_error.email"))
	}
	if strings.TrimSpace(in.Username) == "" {
		problems = append(problems, fieldError("username", "field required", "value_error.missing"))
	}
	if len(in.Password) < 6 {
		problems = append(problems, fieldError("password", "ensure this value has at least 6 characters", "value_error.any_str.min_length"))
	}
	if len(problems) > 0 {
		abortValidation(c, problems...)
		return
	}

	u, err := s.CreateUser(in.Email, in.Username, in.Password, in.IsAdmin)
	if errors.Is(err, domain.ErrConflict) {
		abortDetail(c, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		abortDetail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if in.FullName != "" {
		s.mu.Lock()
		s.users[u.ID].user.FullName = in.FullName
		u = s.users[u.ID].user
		s.mu.Unlock()
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) login(c *gin.Context) {
	var in domain.LoginRequest
	if !bindBody(c, &in) {
		return
	}
	s.mu.Lock()
	rec, ok := s.users[s.byEmail[strings.ToLower(in.Email)]]
	var user domain.User
	var hash []byte
	if ok {
		user, hash = rec.user, rec.hash
	}
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(in.Password)) != nil {
		c.Header("WWW-Authenticate", "Bearer")
		abortDetail(c, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	token, err := s.IssueToken(user.ID, s.tokenTTL)
	if err != nil {
		abortDetail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, domain.AuthResponse{AccessToken: token, TokenType: "bearer", User: &user})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// requireUser resolves the bearer token. A missing header is 403, an invalid
// or expired token is 401.
func (s *Server) requireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		abortDetail(c, http.StatusForbidden, "Not authenticated")
		return
	}
	userID, err := s.parseToken(strings.TrimSpace(token))
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		abortDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	s.mu.Lock()
	rec, ok := s.users[userID]
	var user domain.User
	if ok {
		user = rec.user
	}
	s.mu.Unlock()
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		abortDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	if !currentUser(c).IsAdmin {
		abortDetail(c, http.StatusForbidden, "Not enough permissions")
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) domain.User {
	v, _ := c.Get(userKey)
	u, _ := v.(domain.User)
	return u
}
