package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"transcription-service/pkg/errno"
	"transcription-service/pkg/restapi"
)

// UserKey 是 gin.Context 中保存调用方身份的键
const UserKey = "user_uuid"

// IdentityMiddleware 解析 Bearer token 中的 sub 作为调用方身份。
// secret 为空时不做任何处理，身份仅来自 X-User-UUID 头。
// 只负责识别调用方，不做权限判断。
func IdentityMiddleware(secret, issuer string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
		if issuer != "" {
			opts = append(opts, jwt.WithIssuer(issuer))
		}
		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}, opts...)
		if err != nil {
			restapi.Failed(c, errno.NewBizError(errno.ErrUnauthorized, err))
			return
		}
		if claims.Subject == "" {
			restapi.Failed(c, errno.NewBizError(errno.ErrUnauthorized, errors.New("token has no subject")))
			return
		}
		c.Set(UserKey, claims.Subject)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
