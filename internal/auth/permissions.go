package auth

import "github.com/loanpro/loanpro-backend/internal/domain"

// Operation names every permission-gated action in the API.
type Operation string

const (
	OpCustomerRegister    Operation = "customer.register"
	OpCustomerApprove     Operation = "customer.approve"
	OpCustomerAssignStaff Operation = "customer.assign_staff"
	OpAddressVerify       Operation = "customer.verify_address"
	OpScoreView           Operation = "customer.score_view"
	OpKYCSubmit           Operation = "kyc.submit"
	OpKYCVerify           Operation = "kyc.verify"
	OpLoanApply           Operation = "loan.apply"
	OpLoanApprove         Operation = "loan.approve"
	OpLoanReject          Operation = "loan.reject"
	OpLoanDisburse        Operation = "loan.disburse"
	OpLoanView            Operation = "loan.view"
	OpPaymentRecord       Operation = "payment.record"
	OpPaymentView         Operation = "payment.view"
	OpDashboardAdmin      Operation = "dashboard.admin"
	OpDashboardCustomer   Operation = "dashboard.customer"
	OpAuditView           Operation = "audit.view"
)

// permissions is the single authoritative (role, operation) table. Anything
// not listed is denied.
var permissions = map[Operation][]domain.Role{
	OpCustomerRegister:    {domain.RoleAdmin, domain.RoleManager, domain.RoleRelationshipOfficer, domain.RoleAccountOfficer, domain.RoleCustomer},
	OpCustomerApprove:     {domain.RoleAdmin, domain.RoleManager},
	OpCustomerAssignStaff: {domain.RoleAdmin, domain.RoleManager},
	OpAddressVerify:       {domain.RoleAdmin},
	OpScoreView:           {domain.RoleAdmin, domain.RoleAccountOfficer, domain.RoleCustomer},
	OpKYCSubmit:           {domain.RoleCustomer, domain.RoleAccountOfficer, domain.RoleRelationshipOfficer},
	OpKYCVerify:           {domain.RoleAdmin, domain.RoleManager, domain.RoleRelationshipOfficer, domain.RoleAccountOfficer},
	OpLoanApply:           {domain.RoleCustomer, domain.RoleAccountOfficer},
	OpLoanApprove:         {domain.RoleAdmin},
	OpLoanReject:          {domain.RoleAdmin},
	OpLoanDisburse:        {domain.RoleAdmin},
	OpLoanView:            {domain.RoleAdmin, domain.RoleManager, domain.RoleRelationshipOfficer, domain.RoleAccountOfficer, domain.RoleCustomer},
	OpPaymentRecord:       {domain.RoleAdmin},
	OpPaymentView:         {domain.RoleAdmin, domain.RoleManager, domain.RoleRelationshipOfficer, domain.RoleAccountOfficer, domain.RoleCustomer},
	OpDashboardAdmin:      {domain.RoleAdmin},
	OpDashboardCustomer:   {domain.RoleCustomer},
	OpAuditView:           {domain.RoleAdmin},
}

// Allowed reports whether the role may invoke the operation.
func Allowed(role domain.Role, op Operation) bool {
	for _, r := range permissions[op] {
		if r == role {
			return true
		}
	}
	return false
}
