package pricing

import (
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/pkg/apperror"
)

// ValidateCustomer runs the checks that block a customer save.
func ValidateCustomer(c *entity.Customer) error {
	var fieldErrors []apperror.FieldError

	if err := ValidateBaseDiscount(c.BaseDiscount); err != nil {
		fieldErrors = append(fieldErrors, apperror.GetAppError(err).Errors...)
	}
	if c.TaxStatus == enum.TaxStatusExempt && !c.HasExemptionNumber() {
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field:   "tax_exemption_number",
			Message: "Tax exemption number is required when tax status is Exempt",
		})
	}
	if c.OrganizationLink().Kind == entity.OrganizationLinkAmbiguous {
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field:   "organization",
			Message: "Customer cannot be linked to both a camp and another organization",
		})
	}

	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// Readiness returns the advisory sync status a customer needs before it can
// be pushed, with a message for the operator. A ready customer yields
// SyncStatusPending and an empty message.
func Readiness(c *entity.Customer) (enum.SyncStatus, string) {
	switch c.OrganizationLink().Kind {
	case entity.OrganizationLinkNone:
		return enum.SyncStatusMissingLink, "Customer is not linked to a camp or an organization"
	case entity.OrganizationLinkAmbiguous:
		return enum.SyncStatusMissingLink, "Customer is linked to both a camp and an organization"
	case entity.OrganizationLinkCamp, entity.OrganizationLinkOther:
	}

	switch c.TaxStatus {
	case enum.TaxStatusPending:
		return enum.SyncStatusTaxPending, "Customer tax status is pending"
	case enum.TaxStatusExempt:
		if !c.HasExemptionNumber() {
			return enum.SyncStatusMissingTaxExemption, "Customer is tax exempt but has no exemption number"
		}
	case enum.TaxStatusTaxed:
	}

	return enum.SyncStatusPending, ""
}
