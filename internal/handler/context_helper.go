package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saufi-opi/mini-emr/internal/middleware"
	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/pkg/query"
)

func currentUser(c *gin.Context) (*models.User, bool) {
	return middleware.MustCurrentUser(c)
}

// listQuery reads skip, limit, sort and search from the query string.
func listQuery(c *gin.Context) (models.ListQuery, error) {
	pagination, err := query.ParsePagination(c.Query("skip"), c.Query("limit"))
	if err != nil {
		return models.ListQuery{}, err
	}
	return models.ListQuery{
		Pagination: pagination,
		Sort:       query.ParseSort(c.Query("sort")),
		Search:     c.Query("search"),
	}, nil
}

// ParseSameSite maps a configured SameSite name onto the cookie attribute.
func ParseSameSite(raw string) http.SameSite {
	switch strings.ToLower(raw) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
