package helpers

import (
	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/schemas"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
)

// GenerateJWT generates a jwt token with a claim
func GenerateJWT(c *fiber.Ctx, userID string, username string) (string, error) {
	exp := time.Now().Add(time.Hour * 1).Unix()
	user := jwt.MapClaims{}
	user["id"] = userID
	user["username"] = username
	user["exp"] = exp
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, user)
	token, err := jt.SignedString(global.JwtKey)
	if err != nil {
		return "", errors.HandleInternalError(c, "jwt", "jwt: "+err.Error())
	}
	return token, nil
}

// ParseJWT parses a jwt to userID and username
func ParseJWT(c *fiber.Ctx, jwtString string) (string, string, error) {
	token, err := jwt.Parse(jwtString, func(token *jwt.Token) (interface{}, error) {
		return global.JwtKey, nil
	})
	if err != nil {
		if validationErr, ok := err.(*jwt.ValidationError); ok && validationErr.Errors == jwt.ValidationErrorExpired {
			return "expired", "", nil
		}
		return "", "", errors.HandleInternalError(c, "jwt_parse", err.Error())
	}
	user, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.HandleInternalError(c, "jwt_claims", "invalid claims")
	}
	return user["id"].(string), user["username"].(string), nil
}

// GenerateAndRefreshTokens generates and interacts with redis to store tokens and then sets response header
func GenerateAndRefreshTokens(c *fiber.Ctx, userID string, sessionID string, username string) error {

	var tokens schemas.TokensSchema

	_, err := global.RedisClient.Pipelined(global.Context, func(pipe redis.Pipeliner) error {

		var err error

		tokens.RefreshToken.Token, err = RandomTokenString(40)
		if err != nil {
			return err
		}

		tokens.RefreshToken.ExpireAt = time.Now().UTC().Add(global.RefreshTokenDuration).Unix()

		query := map[string]interface{}{
			"token":    tokens.RefreshToken.Token,
			"userid":   userID,
			"username": username,
			"ip":       c.IP(),
		}

		if err = pipe.HSet(global.Context, "refreshtokens:"+sessionID, query).Err(); err != nil {
			return err
		}

		return pipe.Expire(global.Context, "refreshtokens:"+sessionID, global.RefreshTokenDuration).Err()
	})
	if err != nil {
		return errors.HandleInternalError(c, "refresh_tokens", "Redis: "+err.Error())
	}

	tokens.AccessToken, err = GenerateJWT(c, userID, username)
	if tokens.AccessToken == "" {
		return err
	}

	c.Response().Header.Add("x-refreshed", "true")
	c.Response().Header.Add("x-refresh-token", tokens.RefreshToken.Token)
	c.Response().Header.Add("x-refresh-token-expire", fmt.Sprint(tokens.RefreshToken.ExpireAt))
	c.Response().Header.Add("x-access-token", tokens.AccessToken)
	return nil
}
