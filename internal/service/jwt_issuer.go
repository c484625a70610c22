package service

import (
	"time"

	"marketauth/internal/entity"
	"marketauth/internal/utils"
)

type JWTSessionIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTSessionIssuer) IssueSessionToken(principal *entity.Principal, typ entity.PrincipalType) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, utils.ErrInvalidToken
	}
	return j.Manager.IssueSessionToken(principal.ID.String(), principal.Name, string(typ))
}
