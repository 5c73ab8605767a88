package model

import (
	"time"
)

var ALL_POS_TABLES []interface{} = []interface{}{
	Staff{}, Product{}, Table{}, Order{}, OrderItem{}, Payment{},
}

type Staff struct {
	ID        uint      `json:"id" gorm:"auto_increment;primary_key"`
	Username  string    `json:"username" gorm:"index;unique;not null"`
	FullName  string    `json:"full_name" gorm:"not null"`
	Role      string    `json:"role" gorm:"not null"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

type Product struct {
	ID          uint      `json:"id" gorm:"auto_increment;primary_key"`
	Name        string    `json:"name" gorm:"index;unique;not null"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	IsAvailable bool      `json:"is_available" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Table struct {
	ID             uint      `json:"id" gorm:"auto_increment;primary_key"`
	TableNumber    string    `json:"table_number" gorm:"index;unique;not null"`
	Capacity       int       `json:"capacity" gorm:"not null;default:4"`
	Status         string    `json:"status" gorm:"not null;default:available"`
	Location       *string   `json:"location,omitempty"`
	CurrentOrderID *uint     `json:"current_order_id,omitempty"`
	ReservedFor    *string   `json:"reserved_for,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Order struct {
	ID             uint       `json:"id" gorm:"auto_increment;primary_key"`
	OrderNumber    string     `json:"order_number" gorm:"index;unique;not null"`
	OrderType      string     `json:"order_type" gorm:"not null;default:dine_in"`
	Status         string     `json:"status" gorm:"not null;default:pending"`
	TableID        *uint      `json:"table_id,omitempty" gorm:"index"`
	ServerID       uint       `json:"server_id" gorm:"index;not null"`
	Subtotal       float64    `json:"subtotal" gorm:"type:decimal(10,2);not null;default:0"`
	TaxAmount      float64    `json:"tax_amount" gorm:"type:decimal(10,2);not null;default:0"`
	DiscountAmount float64    `json:"discount_amount" gorm:"type:decimal(10,2);not null;default:0"`
	Total          float64    `json:"total" gorm:"type:decimal(10,2);not null;default:0"`
	Notes          *string    `json:"notes,omitempty"`
	Version        uint       `json:"version" gorm:"not null;default:1"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type OrderItem struct {
	ID        uint      `json:"id" gorm:"auto_increment;primary_key"`
	OrderID   uint      `json:"order_id" gorm:"index;not null"`
	ProductID uint      `json:"product_id" gorm:"index;not null"`
	ServerID  uint      `json:"server_id" gorm:"index"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	UnitPrice float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Subtotal  float64   `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Status    string    `json:"status" gorm:"not null;default:pending"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Payment struct {
	ID            uint      `json:"id" gorm:"auto_increment;primary_key"`
	PaymentNumber string    `json:"payment_number" gorm:"index;unique;not null"`
	OrderID       uint      `json:"order_id" gorm:"index;not null"`
	Amount        float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	Method        string    `json:"method" gorm:"not null;default:cash"`
	Status        string    `json:"status" gorm:"not null;default:pending"`
	ProcessedBy   uint      `json:"processed_by" gorm:"index"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
