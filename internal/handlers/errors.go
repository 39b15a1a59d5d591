package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
)

var errInvalidBody = services.NewValidationError("Invalid request body")

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}. Errors outside the domain
// taxonomy are reported as 500 with their own message.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(services.KindOf(err)), gin.H{"error": err.Error()})
}

// bindJSON decodes the request body into req. An empty body counts as an
// empty object when allowEmpty is set, and as missing fields otherwise.
func bindJSON(c *gin.Context, req interface{}, allowEmpty bool) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		if allowEmpty {
			return nil
		}
		return services.ErrMissingFields
	}

	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return nil
		}
		return services.ErrMissingFields
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errInvalidBody
	}
	return services.ErrMissingFields
}

// pathID reads an integer path parameter. A value that is not a positive
// integer names no record, so it is answered with notFound.
func pathID(c *gin.Context, name string, notFound error) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, notFound)
		return 0, false
	}
	return uint(id), true
}

// queryID reads an optional integer query parameter; anything unparseable is
// treated as absent.
func queryID(c *gin.Context, name string) *uint {
	value, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil
	}
	result := uint(id)
	return &result
}
