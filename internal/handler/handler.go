// Package handler holds the helpers shared by the console's HTTP handlers.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/model"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/httputil"
	"github.com/jwalitptl/clinic-console/pkg/validator"
)

// BindJSON decodes and validates the request body into obj. On failure it
// writes a 400 and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		httputil.RespondWithError(c, bindError(err, "invalid request body"))
		return false
	}
	return true
}

// BindQuery is BindJSON for query parameters.
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		httputil.RespondWithError(c, bindError(err, "invalid query parameters"))
		return false
	}
	return true
}

func bindError(err error, fallback string) error {
	if fields, ok := validator.Fields(err); ok {
		return apperrors.BadRequest(validator.Message(fields), err)
	}
	return apperrors.BadRequest(fallback, err)
}

// Refresh reports whether the caller asked to bypass the cached snapshot.
func Refresh(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("refresh"))
	return v
}

// Subject is the session subject stored by the auth middleware. Routes
// reaching it without a session are a wiring bug.
func Subject(c *gin.Context) model.ID {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		panic("handler: route registered without RequireRole")
	}
	return sess.Subject
}

// ID reads a record identity from the path.
func ID(c *gin.Context, param string) model.ID {
	return model.ID(c.Param(param))
}
