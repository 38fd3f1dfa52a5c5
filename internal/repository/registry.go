package repository

import (
	"context"

	"gorm.io/gorm"
)

// Registry is a scoped store handle. Repositories obtained from the same
// Registry share its connection; inside Transaction they share the tx.
type Registry interface {
	Officers() OfficerRepository
	Admins() AdminRepository
	Applications() ApplicationRepository
	LostIDs() LostIDRepository
	Citizens() CitizenRepository
	Documents() DocumentRepository
	Payments() PaymentRepository
	Sequences() SequenceRepository

	// Transaction runs fn against a Registry bound to one database transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Registry) error) error
}

type registry struct {
	db      *gorm.DB
	replica *gorm.DB
}

// NewRegistry binds repositories to the primary database and an optional replica.
func NewRegistry(db, replica *gorm.DB) Registry {
	return &registry{db: db, replica: replica}
}

func (r *registry) Officers() OfficerRepository {
	return &officerRepository{db: r.db, read: readDB(r.db, r.replica)}
}

func (r *registry) Admins() AdminRepository {
	return &adminRepository{db: r.db}
}

func (r *registry) Applications() ApplicationRepository {
	return &applicationRepository{db: r.db, read: readDB(r.db, r.replica)}
}

func (r *registry) LostIDs() LostIDRepository {
	return &lostIDRepository{db: r.db, read: readDB(r.db, r.replica)}
}

func (r *registry) Citizens() CitizenRepository {
	return &citizenRepository{db: r.db}
}

func (r *registry) Documents() DocumentRepository {
	return &documentRepository{db: r.db}
}

func (r *registry) Payments() PaymentRepository {
	return &paymentRepository{db: r.db}
}

func (r *registry) Sequences() SequenceRepository {
	return &sequenceRepository{db: r.db}
}

func (r *registry) Transaction(ctx context.Context, fn func(tx Registry) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Reads inside a transaction must see its own writes.
		return fn(&registry{db: tx})
	})
}
