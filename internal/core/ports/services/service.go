package services

// ServiceContainer holds instances of all the application services.
// It is passed to the route registration layer so handlers depend on
// interfaces only.
type ServiceContainer struct {
	Ledger  LedgerSvcFacade
	Receipt ReceiptSvcFacade
}
