// Package models holds the GORM row types for the customers, invoices,
// invoice_items and invoice_payments tables. Domain types stay free of
// ORM tags; each model converts with ToDomain and FromDomain.
package models
