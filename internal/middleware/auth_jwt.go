package middleware

import (
	"net/http"
	"strings"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // string(UUID)
	CtxUserEmailKey = "user_email" // string
)

// トークン検証の約束。token.JWTIssuer が満たす
type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

// bearerAuth用のJWT検証ミドルウェア。
// "Bearer <token>" と、ヘッダにトークンだけを入れる形の両方を受け付ける。
func AuthJWT(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			rawToken := authz
			if parts := strings.SplitN(authz, " ", 2); len(parts) == 2 {
				if !strings.EqualFold(parts[0], "Bearer") {
					return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
				}
				rawToken = strings.TrimSpace(parts[1])
			}
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//署名・期限・subの検証
			claims, err := parser.Parse(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, claims.Subject)
			c.Set(CtxUserEmailKey, claims.Email)

			return next(c)
		}
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func errorJSON(msg string) messageResponse {
	return messageResponse{Message: msg}
}
