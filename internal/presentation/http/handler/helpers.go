package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/sangkips/qbo-connector/pkg/utils"
)

// parseIDParam reads a uuid path parameter
func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := utils.ParseUUID(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.NewFieldValidationError(name, "must be a valid UUID")
	}
	return id, nil
}
