package order

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/umerkang66/db-lab-project/internal/config"
	"github.com/umerkang66/db-lab-project/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func createProduct(t *testing.T, db *gorm.DB, stock uint) models.Product {
	t.Helper()
	p := models.Product{
		Name:          "test_product",
		Description:   "test_description",
		Price:         10,
		StockQuantity: stock,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestPlaceOrderSuccess(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	userID := uuid.New()

	p := createProduct(t, db, 5)
	require.NoError(t, db.Create(&models.CartItem{UserID: userID, ProductID: p.ProductID, Quantity: 3}).Error)

	orderID, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "test street 1",
		Items:   []LineItem{{ProductID: p.ProductID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, orderID)

	var got models.Product
	require.NoError(t, db.First(&got, "product_id = ?", p.ProductID).Error)
	require.Equal(t, uint(2), got.StockQuantity)

	var order models.Order
	require.NoError(t, db.First(&order, "order_id = ?", orderID).Error)
	require.Equal(t, userID, order.UserID)
	require.Equal(t, "test street 1", order.Address)
	require.Equal(t, models.OrderStatusUnpaid, order.Status)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", orderID).Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, p.ProductID, items[0].ProductID)
	require.Equal(t, uint(3), items[0].Quantity)

	var cartCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	require.Equal(t, int64(0), cartCount)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	userID := uuid.New()

	ok := createProduct(t, db, 10)
	low := createProduct(t, db, 2)
	require.NoError(t, db.Create(&models.CartItem{UserID: userID, ProductID: ok.ProductID, Quantity: 1}).Error)

	_, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "test street 1",
		Items: []LineItem{
			{ProductID: ok.ProductID, Quantity: 1},
			{ProductID: low.ProductID, Quantity: 3},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, low.ProductID, stockErr.ProductID)
	require.Equal(t, uint(2), stockErr.Available)
	require.Equal(t, uint(3), stockErr.Requested)

	// Nothing may survive the rollback, including the first item's decrement.
	var got models.Product
	require.NoError(t, db.First(&got, "product_id = ?", ok.ProductID).Error)
	require.Equal(t, uint(10), got.StockQuantity)

	var orderCount, itemCount, cartCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Count(&cartCount).Error)
	require.Equal(t, int64(0), orderCount)
	require.Equal(t, int64(0), itemCount)
	require.Equal(t, int64(1), cartCount)
}

func TestPlaceOrderSequentialStockScenario(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	p := createProduct(t, db, 5)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderRequest{
		Address: "first buyer",
		Items:   []LineItem{{ProductID: p.ProductID, Quantity: 3}},
	})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderRequest{
		Address: "second buyer",
		Items:   []LineItem{{ProductID: p.ProductID, Quantity: 3}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, uint(2), stockErr.Available)
	require.Equal(t, uint(3), stockErr.Requested)

	var got models.Product
	require.NoError(t, db.First(&got, "product_id = ?", p.ProductID).Error)
	require.Equal(t, uint(2), got.StockQuantity)
}

func TestPlaceOrderValidation(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	userID := uuid.New()

	_, err := svc.PlaceOrder(context.Background(), uuid.Nil, PlaceOrderRequest{
		Address: "somewhere",
		Items:   []LineItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "somewhere",
		Items:   []LineItem{},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Items: []LineItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "somewhere",
		Items:   []LineItem{{ProductID: uuid.New(), Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "somewhere",
		Status:  "shipped",
		Items:   []LineItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	// Validation failures never reach the datastore.
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Equal(t, int64(0), orderCount)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderRequest{
		Address: "somewhere",
		Items:   []LineItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrNotFound)

	var orderCount, itemCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&itemCount).Error)
	require.Equal(t, int64(0), orderCount)
	require.Equal(t, int64(0), itemCount)
}

func TestPlaceOrderKeepsUnorderedCartRows(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	userID := uuid.New()

	ordered := createProduct(t, db, 5)
	kept := createProduct(t, db, 5)
	require.NoError(t, db.Create(&models.CartItem{UserID: userID, ProductID: ordered.ProductID, Quantity: 2}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: userID, ProductID: kept.ProductID, Quantity: 1}).Error)

	_, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "somewhere",
		Items:   []LineItem{{ProductID: ordered.ProductID, Quantity: 2}},
	})
	require.NoError(t, err)

	var remaining []models.CartItem
	require.NoError(t, db.Where("user_id = ?", userID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, kept.ProductID, remaining[0].ProductID)
}

func TestMarkPaid(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	userID := uuid.New()

	p := createProduct(t, db, 5)
	orderID, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "somewhere",
		Items:   []LineItem{{ProductID: p.ProductID, Quantity: 1}},
	})
	require.NoError(t, err)

	paymentID, err := svc.MarkPaid(context.Background(), userID, PaymentRequest{
		OrderID:       orderID,
		PaymentMethod: "card",
		Amount:        10,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, paymentID)

	var order models.Order
	require.NoError(t, db.First(&order, "order_id = ?", orderID).Error)
	require.Equal(t, models.OrderStatusPaid, order.Status)

	var payment models.Payment
	require.NoError(t, db.First(&payment, "payment_id = ?", paymentID).Error)
	require.Equal(t, orderID, payment.OrderID)
	require.Equal(t, "card", payment.PaymentMethod)
	require.Equal(t, models.PaymentStatusPaid, payment.Status)
	require.False(t, payment.PaidAt.IsZero())
}

func TestMarkPaidTwiceKeepsOnePayment(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	userID := uuid.New()

	p := createProduct(t, db, 5)
	orderID, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "somewhere",
		Items:   []LineItem{{ProductID: p.ProductID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), userID, PaymentRequest{
		OrderID: orderID, PaymentMethod: "card", Amount: 10,
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), userID, PaymentRequest{
		OrderID: orderID, PaymentMethod: "card", Amount: 10,
	})
	require.ErrorIs(t, err, ErrAlreadyPaid)

	var order models.Order
	require.NoError(t, db.First(&order, "order_id = ?", orderID).Error)
	require.Equal(t, models.OrderStatusPaid, order.Status)

	var paymentCount int64
	require.NoError(t, db.Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&paymentCount).Error)
	require.Equal(t, int64(1), paymentCount)
}

func TestMarkPaidValidation(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	userID := uuid.New()

	_, err := svc.MarkPaid(context.Background(), uuid.Nil, PaymentRequest{
		OrderID: uuid.New(), PaymentMethod: "card", Amount: 10,
	})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.MarkPaid(context.Background(), userID, PaymentRequest{
		PaymentMethod: "card", Amount: 10,
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.MarkPaid(context.Background(), userID, PaymentRequest{
		OrderID: uuid.New(), Amount: 10,
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.MarkPaid(context.Background(), userID, PaymentRequest{
		OrderID: uuid.New(), PaymentMethod: "card", Amount: -5,
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.MarkPaid(context.Background(), userID, PaymentRequest{
		OrderID: uuid.New(), PaymentMethod: "card", Amount: 10,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders(t *testing.T) {
	db := newTestDB(t)
	svc := &Service{DB: db}
	userID := uuid.New()
	otherID := uuid.New()

	p := createProduct(t, db, 20)
	mine, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderRequest{
		Address: "mine",
		Items:   []LineItem{{ProductID: p.ProductID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(context.Background(), otherID, PlaceOrderRequest{
		Address: "other",
		Items:   []LineItem{{ProductID: p.ProductID, Quantity: 1}},
	})
	require.NoError(t, err)

	orders, err := svc.ListOrders(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, mine, orders[0].OrderID)
	require.Len(t, orders[0].Items, 1)
	require.Equal(t, uint(2), orders[0].Items[0].Quantity)

	all, err := svc.ListAllOrders(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
