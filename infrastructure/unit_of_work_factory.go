package infrastructure

import (
	"fireworks/application"
	"fireworks/domain/interfaces"
)

// StoreFactory opens store units of work bound to a transactional publisher.
// Implemented by the postgres and in-memory stores.
type StoreFactory interface {
	CreateWithPublisher(eventPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork
}

// UnitOfWorkFactory implements application.UnitOfWorkFactory. Each UnitOfWork it
// creates gets its own transactional publisher feeding eventPublisher.
type UnitOfWorkFactory struct {
	storeFactory   StoreFactory
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(storeFactory StoreFactory, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	if eventPublisher == nil {
		eventPublisher = discardPublisher{}
	}
	return &UnitOfWorkFactory{
		storeFactory:   storeFactory,
		eventPublisher: eventPublisher,
	}
}

// Create creates a new UnitOfWork with a fresh transactional publisher
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	transactionalPublisher := NewTransactionalPublisher(f.eventPublisher)
	return &unitOfWork{
		inner:                  f.storeFactory.CreateWithPublisher(transactionalPublisher),
		transactionalPublisher: transactionalPublisher,
	}
}
