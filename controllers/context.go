package controllers

import (
	"net/http"

	"glowdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// branchAndUserFromContext extracts the authenticated branch and user IDs the
// auth middleware stored on the request. It writes the error response itself
// so handlers can bail out with a bare return.
func branchAndUserFromContext(c *gin.Context) (branchID, userID uuid.UUID, ok bool) {
	rawBranch, exists := c.Get("branchId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Branch ID not found in context")
		return uuid.Nil, uuid.Nil, false
	}
	rawUser, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return uuid.Nil, uuid.Nil, false
	}

	branchID, err := uuid.Parse(rawBranch.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid branch ID format")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = uuid.Parse(rawUser.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return branchID, userID, true
}

// uuidParam parses a uuid path parameter, responding with 400 on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
