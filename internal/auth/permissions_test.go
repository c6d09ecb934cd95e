package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		role domain.Role
		op   Operation
		want bool
	}{
		{domain.RoleCustomer, OpLoanApply, true},
		{domain.RoleCustomer, OpLoanApprove, false},
		{domain.RoleCustomer, OpLoanDisburse, false},
		{domain.RoleCustomer, OpKYCSubmit, true},
		{domain.RoleCustomer, OpKYCVerify, false},
		{domain.RoleCustomer, OpAuditView, false},
		{domain.RoleAdmin, OpLoanApprove, true},
		{domain.RoleAdmin, OpLoanDisburse, true},
		{domain.RoleAdmin, OpAddressVerify, true},
		{domain.RoleAdmin, OpPaymentRecord, true},
		{domain.RoleAdmin, OpAuditView, true},
		{domain.RoleManager, OpCustomerApprove, true},
		{domain.RoleManager, OpLoanApprove, false},
		{domain.RoleManager, OpAddressVerify, false},
		{domain.RoleRelationshipOfficer, OpKYCVerify, true},
		{domain.RoleRelationshipOfficer, OpCustomerAssignStaff, false},
		{domain.RoleAccountOfficer, OpLoanApply, true},
		{domain.RoleAccountOfficer, OpLoanReject, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.role, tt.op))
		})
	}
}

func TestUnknownOperationIsDenied(t *testing.T) {
	for _, role := range append(domain.StaffRoles(), domain.RoleAdmin, domain.RoleCustomer) {
		assert.False(t, Allowed(role, Operation("does.not.exist")))
	}
}
