package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID  = "user_id"
	ContextUser    = "user"
	ContextIsAdmin = "is_admin"
)

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// NewCasdoorParser builds a casdoor client for the configured application.
func NewCasdoorParser(cfg config.AuthConfig) TokenParser {
	return casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
}

type Auth struct {
	parser      TokenParser
	adminEmails map[string]struct{}
	logger      *slog.Logger
}

func NewAuth(parser TokenParser, adminEmails []string, logger *slog.Logger) *Auth {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[strings.ToLower(email)] = struct{}{}
	}
	return &Auth{parser: parser, adminEmails: admins, logger: logger}
}

// Authenticate requires a valid bearer token and stores the caller in the
// gin context.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing bearer token"})
			return
		}

		claims, err := a.parser.ParseJwtToken(token)
		if err != nil {
			a.logger.Warn("Rejected bearer token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		user := a.userFromClaims(claims)
		if user.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has no subject"})
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Set(ContextIsAdmin, user.IsAdmin())
		c.Next()
	}
}

func (a *Auth) userFromClaims(claims *casdoorsdk.Claims) *models.User {
	id := claims.User.Id
	if id == "" {
		id = claims.Subject
	}

	role := models.RoleLearner
	if _, ok := a.adminEmails[strings.ToLower(claims.User.Email)]; ok || claims.User.IsAdmin {
		role = models.RoleAdmin
	}
	return &models.User{
		ID:    id,
		Name:  claims.User.Name,
		Email: claims.User.Email,
		Role:  role,
	}
}

// RequireAdmin rejects callers that Authenticate did not mark as admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller stored by Authenticate.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
