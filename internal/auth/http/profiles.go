package http

import (
	"net/http"

	"github.com/bonechkabonechka/tgauth/internal/auth/service"
	"github.com/bonechkabonechka/tgauth/pkg/httpx"
)

type ProfileHandler struct {
	ProfileService *service.ProfileService
}

// ServeHTTP looks a profile up by id.
//
//	@Summary		Get profile
//	@Description	Returns any profile by id. Requires the admin role.
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Profile id"
//	@Success		200	{object}	authsdk.Profile			"Profile"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Not authenticated"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Missing admin role"
//	@Failure		404	{object}	authsdk.ErrorResponse	"Profile not found"
//	@Router			/v1/profiles/{id} [get].
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ProfileService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProfile(profile))
}
