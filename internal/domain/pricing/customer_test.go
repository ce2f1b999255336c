package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/qbo-connector/internal/domain/entity"
	"github.com/sangkips/qbo-connector/internal/domain/enum"
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCustomer(t *testing.T) {
	campID := uuid.New()
	otherID := uuid.New()
	number := "EX-9"

	t.Run("discount out of range blocks save", func(t *testing.T) {
		err := ValidateCustomer(&entity.Customer{BaseDiscount: d("110"), CampID: &campID})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("exempt requires number", func(t *testing.T) {
		err := ValidateCustomer(&entity.Customer{TaxStatus: enum.TaxStatusExempt, CampID: &campID})
		require.Error(t, err)
		assert.Equal(t, "tax_exemption_number", apperror.GetAppError(err).Errors[0].Field)

		require.NoError(t, ValidateCustomer(&entity.Customer{
			TaxStatus: enum.TaxStatusExempt, TaxExemptionNumber: &number, CampID: &campID,
		}))
	})

	t.Run("both organizations", func(t *testing.T) {
		err := ValidateCustomer(&entity.Customer{CampID: &campID, OtherOrganizationID: &otherID})
		require.Error(t, err)
	})

	t.Run("missing link does not block", func(t *testing.T) {
		require.NoError(t, ValidateCustomer(&entity.Customer{BaseDiscount: d("10")}))
	})
}

func TestReadiness(t *testing.T) {
	campID := uuid.New()
	number := "EX-9"

	status, msg := Readiness(&entity.Customer{TaxStatus: enum.TaxStatusTaxed})
	assert.Equal(t, enum.SyncStatusMissingLink, status)
	assert.NotEmpty(t, msg)

	status, _ = Readiness(&entity.Customer{CampID: &campID, TaxStatus: enum.TaxStatusPending})
	assert.Equal(t, enum.SyncStatusTaxPending, status)

	status, _ = Readiness(&entity.Customer{CampID: &campID, TaxStatus: enum.TaxStatusExempt})
	assert.Equal(t, enum.SyncStatusMissingTaxExemption, status)

	status, msg = Readiness(&entity.Customer{CampID: &campID, TaxStatus: enum.TaxStatusExempt, TaxExemptionNumber: &number})
	assert.Equal(t, enum.SyncStatusPending, status)
	assert.Empty(t, msg)
}
