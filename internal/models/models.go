package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	OrderStatusUnpaid = "unpaid"
	OrderStatusPaid   = "paid"

	PaymentStatusPaid = "paid"
)

type User struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey"              json:"user_id"`
	Name         string    `gorm:"size:100"                          json:"name"`
	Email        string    `gorm:"size:100;unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                          json:"-"`
	Role         string    `gorm:"size:20;not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

type Product struct {
	ProductID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"product_id"`
	Name          string    `gorm:"size:100;not null"    json:"name"`
	Description   string    `gorm:"not null"             json:"description"`
	Price         float64   `gorm:"not null"             json:"price"`
	StockQuantity uint      `gorm:"not null"             json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ProductID == uuid.Nil {
		p.ProductID = uuid.New()
	}
	return nil
}

// CartItem is one (user, product) row; a repeated add bumps Quantity
// on the existing row instead of inserting a second one.
type CartItem struct {
	CartID    uuid.UUID `gorm:"type:uuid;primaryKey"                                       json:"cart_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product;index" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"       json:"product_id"`
	Quantity  uint      `gorm:"not null;check:quantity>0"                                  json:"quantity"`
}

func (CartItem) TableName() string { return "cart" }

func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.CartID == uuid.Nil {
		ci.CartID = uuid.New()
	}
	return nil
}

type Order struct {
	OrderID   uuid.UUID `gorm:"type:uuid;primaryKey"            json:"order_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"        json:"user_id"`
	Address   string    `gorm:"not null"                        json:"address"`
	Status    string    `gorm:"size:20;not null;default:unpaid" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderID == uuid.Nil {
		o.OrderID = uuid.New()
	}
	return nil
}

// OrderItem snapshots the cart quantity at order time; later cart or
// product edits never touch it.
type OrderItem struct {
	OrderItemID uuid.UUID `gorm:"type:uuid;primaryKey"      json:"order_item_id"`
	OrderID     uuid.UUID `gorm:"type:uuid;index;not null"  json:"order_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null"        json:"product_id"`
	Quantity    uint      `gorm:"not null;check:quantity>0" json:"quantity"`
}

func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.OrderItemID == uuid.Nil {
		oi.OrderItemID = uuid.New()
	}
	return nil
}

type Payment struct {
	PaymentID     uuid.UUID `gorm:"type:uuid;primaryKey"     json:"payment_id"`
	OrderID       uuid.UUID `gorm:"type:uuid;index;not null" json:"order_id"`
	PaymentMethod string    `gorm:"size:50;not null"         json:"payment_method"`
	Amount        float64   `gorm:"not null"                 json:"amount"`
	Status        string    `gorm:"size:20;not null"         json:"status"`
	PaidAt        time.Time `json:"paid_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"               json:"id"`
	Token     string    `gorm:"unique;not null"          json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Role      string    `gorm:"size:20;not null"         json:"role"`
	ExpiresAt int64     `gorm:"not null"                 json:"expires_at"`
	Revoked   bool      `gorm:"default:false"            json:"revoked"`
}
