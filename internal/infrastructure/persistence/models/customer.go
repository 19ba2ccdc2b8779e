package models

import (
	"github.com/invoicer/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	AggregateModel
	Name       string `gorm:"type:varchar(100);not null;index"`
	Email      string `gorm:"type:varchar(255);not null;uniqueIndex:idx_customers_email"`
	Company    string `gorm:"type:varchar(100)"`
	Phone      string `gorm:"type:varchar(20)"`
	Address    string `gorm:"type:varchar(255)"`
	City       string `gorm:"type:varchar(100)"`
	State      string `gorm:"type:varchar(100)"`
	PostalCode string `gorm:"type:varchar(20)"`
	Country    string `gorm:"type:varchar(100);index"`
	Notes      string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		Aggregate:  m.AggregateModel.aggregate(),
		Name:       m.Name,
		Email:      m.Email,
		Company:    m.Company,
		Phone:      m.Phone,
		Address:    m.Address,
		City:       m.City,
		State:      m.State,
		PostalCode: m.PostalCode,
		Country:    m.Country,
		Notes:      m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.AggregateModel = aggregateColumns(c.Aggregate)
	m.Name = c.Name
	m.Email = c.Email
	m.Company = c.Company
	m.Phone = c.Phone
	m.Address = c.Address
	m.City = c.City
	m.State = c.State
	m.PostalCode = c.PostalCode
	m.Country = c.Country
	m.Notes = c.Notes
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
