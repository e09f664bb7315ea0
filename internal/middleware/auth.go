package middleware

import (
	"strings"

	"encrypted-notes/auth"
	"encrypted-notes/internal/errors"

	"github.com/gin-gonic/gin"
)

const SubjectKey = "subject"

type Auth struct {
	Verifier *auth.Verifier
}

func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		var token string
		tokenQuery := ctx.Query("token")

		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery != "" {
			token = tokenQuery
		} else {
			ctx.Error(errors.Unauthorized("Authorization is not found!"))
			ctx.Abort()
			return
		}

		parsedToken, err := m.Verifier.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.New(errors.KindUnauthorized, "Invalid token!", err))
			ctx.Abort()
			return
		}

		subject, err := auth.GetSubjectFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.New(errors.KindUnauthorized, "Invalid token!", err))
			ctx.Abort()
			return
		}

		ctx.Set(SubjectKey, subject)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}
