package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-records-api/internal/middleware"
	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/policy"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext converts JWT claims into the policy actor. A token
// carrying an unrecognised role degrades to Pending rather than failing
// open.
func actorFromContext(c *gin.Context) policy.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return policy.Actor{}
	}
	return policy.Actor{
		ID:   claims.UserID,
		Role: models.ParseRole(string(claims.Role)),
	}
}
