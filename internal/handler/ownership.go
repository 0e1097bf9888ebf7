package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/naira-wallet/internal/auth"
)

func principal(r *http.Request) (auth.Principal, *AppError) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, ErrMissingToken
	}
	return p, nil
}

// idFromPath parses the {id} path segment. A malformed id is reported as not
// found so probing reveals nothing.
func idFromPath(r *http.Request, notFound *AppError) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
