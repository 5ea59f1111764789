package postgres

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/vedran77/dmcore/internal/domain"
)

// ContactRepo reads the tenant directory. A row with owner = email is the
// member's own profile; other rows are entries in owner's contact list.
type ContactRepo struct {
	pool *pgxpool.Pool
}

func NewContactRepo(pool *pgxpool.Pool) *ContactRepo {
	return &ContactRepo{pool: pool}
}

func (r *ContactRepo) GetContact(ctx context.Context, owner, identity string) (*domain.Contact, error) {
	query := `
		SELECT display_name, email, phone, role
		FROM directory_contacts
		WHERE owner_email = $1 AND email = $2`
	var c domain.Contact
	err := r.pool.QueryRow(ctx, query,
		domain.CanonicalIdentity(owner), domain.CanonicalIdentity(identity),
	).Scan(&c.DisplayName, &c.Email, &c.Phone, &c.Role)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "contactRepo.GetContact.Scan")
	}
	return &c, nil
}

func (r *ContactRepo) UpsertContact(ctx context.Context, owner string, contact *domain.Contact) error {
	query := `
		INSERT INTO directory_contacts (owner_email, email, display_name, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_email, email) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role`
	_, err := r.pool.Exec(ctx, query,
		domain.CanonicalIdentity(owner), domain.CanonicalIdentity(contact.Email),
		contact.DisplayName, contact.Phone, contact.Role,
	)
	return errors.Wrap(err, "contactRepo.UpsertContact.Exec")
}
