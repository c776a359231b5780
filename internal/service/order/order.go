package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/umerkang66/db-lab-project/internal/models"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")       // 401
	ErrInvalidInput      = errors.New("invalid input")      // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrAlreadyPaid       = errors.New("order already paid") // 409
	ErrStorage           = errors.New("storage error")      // 500
)

// InsufficientStockError carries the counts the client message needs.
// It matches errors.Is(err, ErrInsufficientStock).
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available uint
	Requested uint
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type LineItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint      `json:"quantity"`
}

type PlaceOrderRequest struct {
	Address string     `json:"address"`
	Status  string     `json:"status"`
	Items   []LineItem `json:"items"`
}

type PaymentRequest struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentMethod string    `json:"payment_method"`
	Amount        float64   `json:"amount"`
}

// Service owns the atomic creation of an Order, its OrderItems, the
// stock decrements and the cart cleanup for the ordered products. No
// other writer interleaves those mutations for the same order.
type Service struct {
	DB *gorm.DB
}

// PlaceOrder inserts the order, its items, decrements stock and clears
// the ordered products from the caller's cart inside one transaction.
// Stock is taken with a conditional update, so two concurrent orders
// for the same product serialize on the row and can never drive
// stock_quantity below zero. One attempt per call, no retries.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, ErrUnauthorized
	}
	if req.Address == "" {
		return uuid.Nil, fmt.Errorf("%w: address required", ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return uuid.Nil, fmt.Errorf("%w: items required", ErrInvalidInput)
	}
	for _, it := range req.Items {
		if it.ProductID == uuid.Nil {
			return uuid.Nil, fmt.Errorf("%w: product_id required", ErrInvalidInput)
		}
		if it.Quantity == 0 {
			return uuid.Nil, fmt.Errorf("%w: quantity must be > 0", ErrInvalidInput)
		}
	}

	status := req.Status
	if status == "" {
		status = models.OrderStatusUnpaid
	}
	if status != models.OrderStatusUnpaid && status != models.OrderStatusPaid {
		return uuid.Nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}

	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			UserID:  userID,
			Address: req.Address,
			Status:  status,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("%w: create order: %v", ErrStorage, err)
		}

		productIDs := make([]uuid.UUID, 0, len(req.Items))
		for _, it := range req.Items {
			if err := takeStock(tx, it.ProductID, it.Quantity); err != nil {
				return err
			}

			oi := models.OrderItem{
				OrderID:   order.OrderID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return fmt.Errorf("%w: create order item: %v", ErrStorage, err)
			}
			productIDs = append(productIDs, it.ProductID)
		}

		// Only the just-ordered products leave the cart, not the whole cart.
		if err := tx.
			Where("user_id = ? AND product_id IN ?", userID, productIDs).
			Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("%w: clear cart: %v", ErrStorage, err)
		}
		return nil
	})
	if txErr != nil {
		return uuid.Nil, txErr
	}

	return order.OrderID, nil
}

// takeStock is the serialization point for concurrent orders: the
// decrement only lands when enough stock is on the row, and zero rows
// affected means the product is gone or the stock ran out.
func takeStock(tx *gorm.DB, productID uuid.UUID, quantity uint) error {
	res := tx.Model(&models.Product{}).
		Where("product_id = ? AND stock_quantity >= ?", productID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("%w: decrement stock: %v", ErrStorage, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var p models.Product
	err := tx.Select("stock_quantity").First(&p, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if err != nil {
		return fmt.Errorf("%w: read product: %v", ErrStorage, err)
	}
	return &InsufficientStockError{
		ProductID: productID,
		Available: p.StockQuantity,
		Requested: quantity,
	}
}

// MarkPaid records the payment and flips the order to paid in one
// transaction. The status flip is conditional on the order still being
// unpaid, so a double-submitted payment gets ErrAlreadyPaid instead of
// a second Payment row.
func (s *Service) MarkPaid(ctx context.Context, userID uuid.UUID, req PaymentRequest) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, ErrUnauthorized
	}
	if req.OrderID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: order_id required", ErrInvalidInput)
	}
	if req.PaymentMethod == "" {
		return uuid.Nil, fmt.Errorf("%w: payment_method required", ErrInvalidInput)
	}
	if math.IsNaN(req.Amount) || req.Amount < 0 {
		return uuid.Nil, fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidInput)
	}

	var payment models.Payment

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("order_id = ? AND status = ?", req.OrderID, models.OrderStatusUnpaid).
			Update("status", models.OrderStatusPaid)
		if res.Error != nil {
			return fmt.Errorf("%w: update order: %v", ErrStorage, res.Error)
		}
		if res.RowsAffected == 0 {
			var o models.Order
			err := tx.Select("status").First(&o, "order_id = ?", req.OrderID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, req.OrderID)
			}
			if err != nil {
				return fmt.Errorf("%w: read order: %v", ErrStorage, err)
			}
			return fmt.Errorf("%w: order %s", ErrAlreadyPaid, req.OrderID)
		}

		payment = models.Payment{
			OrderID:       req.OrderID,
			PaymentMethod: req.PaymentMethod,
			Amount:        req.Amount,
			Status:        models.PaymentStatusPaid,
			PaidAt:        time.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("%w: create payment: %v", ErrStorage, err)
		}
		return nil
	})
	if txErr != nil {
		return uuid.Nil, txErr
	}

	return payment.PaymentID, nil
}

// ListOrders returns the user's orders, newest first, with their items.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]OrderWithItems, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	return listOrders(ctx, s.DB, q, limit, offset)
}

// ListAllOrders is the admin view over every order.
func (s *Service) ListAllOrders(ctx context.Context, limit, offset int) ([]OrderWithItems, error) {
	return listOrders(ctx, s.DB, s.DB.WithContext(ctx), limit, offset)
}

type OrderWithItems struct {
	models.Order
	Items []models.OrderItem `json:"items"`
}

func listOrders(ctx context.Context, db *gorm.DB, q *gorm.DB, limit, offset int) ([]OrderWithItems, error) {
	var orders []models.Order
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", ErrStorage, err)
	}
	if len(orders) == 0 {
		return []OrderWithItems{}, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	var items []models.OrderItem
	if err := db.WithContext(ctx).Where("order_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("%w: list order items: %v", ErrStorage, err)
	}
	byOrder := make(map[uuid.UUID][]models.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	out := make([]OrderWithItems, len(orders))
	for i, o := range orders {
		out[i] = OrderWithItems{Order: o, Items: byOrder[o.OrderID]}
	}
	return out, nil
}
