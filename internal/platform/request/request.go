// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package requestutil extracts path parameters, JSON bodies and caller identity
from HTTP requests.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/validate"
)

// maxBodyBytes bounds JSON bodies; a syllabus with every unit fits easily.
const maxBodyBytes = 1 << 20

/*
DecodeJSON decodes the request body into target.

Returns:
  - error: validate.ErrInvalidJSON if the body is missing, too large or malformed
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target interface{}) error {
	body := http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredClaims returns the access-token claims or 401.
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}

/*
RequiredUserID returns the ID of the signed-in user or 401.
*/
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
