package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

type kycRepository struct {
	db *sqlx.DB
}

func NewKYCRepository(db *sqlx.DB) KYCRepository {
	return &kycRepository{db: db}
}

func (r *kycRepository) Create(ctx context.Context, kyc *domain.KYCVerification) error {
	query := `
		INSERT INTO kyc_verifications (id, customer_id, bvn, nin, bvn_verified, nin_verified,
		                               status, verified_by, verification_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		kyc.ID,
		kyc.CustomerID,
		kyc.BVN,
		kyc.NIN,
		kyc.BVNVerified,
		kyc.NINVerified,
		kyc.Status,
		kyc.VerifiedBy,
		kyc.VerificationDate,
		kyc.Notes,
		kyc.CreatedAt,
		kyc.UpdatedAt,
	)

	return err
}

func (r *kycRepository) GetByCustomerID(ctx context.Context, customerID uuid.UUID) (*domain.KYCVerification, error) {
	query := `
		SELECT id, customer_id, bvn, nin, bvn_verified, nin_verified, status,
		       verified_by, verification_date, notes, created_at, updated_at
		FROM kyc_verifications
		WHERE customer_id = $1
	`

	var kyc domain.KYCVerification
	err := r.db.GetContext(ctx, &kyc, query, customerID)
	if err != nil {
		return nil, err
	}

	return &kyc, nil
}

func (r *kycRepository) Update(ctx context.Context, kyc *domain.KYCVerification) error {
	query := `
		UPDATE kyc_verifications
		SET bvn = $2, nin = $3, bvn_verified = $4, nin_verified = $5, status = $6,
		    verified_by = $7, verification_date = $8, notes = $9, updated_at = $10
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		kyc.ID,
		kyc.BVN,
		kyc.NIN,
		kyc.BVNVerified,
		kyc.NINVerified,
		kyc.Status,
		kyc.VerifiedBy,
		kyc.VerificationDate,
		kyc.Notes,
		time.Now(),
	)

	return err
}
