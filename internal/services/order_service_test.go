package services_test

import (
	"fmt"
	"strings"
	"testing"

	"cuahang/internal/lifecycle"
	"cuahang/internal/models"
	"cuahang/internal/repositories"
	"cuahang/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepo is a mock implementation of repositories.OrderRepository
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) GetAll() ([]models.Order, error) {
	args := m.Called()
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepo) GetAllByUser(userID string) ([]models.Order, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepo) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepo) Create(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepo) Update(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepo) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockOrderRepo) ExistsByOrderNumber(orderNumber string) (bool, error) {
	args := m.Called(orderNumber)
	return args.Bool(0), args.Error(1)
}

// MockProductRepo is a mock implementation of repositories.ProductRepository
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) GetAll() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepo) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepo) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepo) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepo) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductRepo) AdjustInventory(id string, stockDelta, soldDelta int) error {
	args := m.Called(id, stockDelta, soldDelta)
	return args.Error(0)
}

// MockCartRepo is a mock implementation of repositories.CartRepository
type MockCartRepo struct {
	mock.Mock
}

func (m *MockCartRepo) GetByUser(userID string) (*models.Cart, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartRepo) Save(cart *models.Cart) error {
	args := m.Called(cart)
	return args.Error(0)
}

func (m *MockCartRepo) Clear(cartID string) error {
	args := m.Called(cartID)
	return args.Error(0)
}

var (
	admin = services.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	buyer = services.Actor{UserID: "user-1", Role: models.RoleUser}
)

func newOrderService(orderRepo *MockOrderRepo, productRepo *MockProductRepo, cartRepo *MockCartRepo, policy services.PaymentPolicy) *services.OrderService {
	return services.NewOrderService(orderRepo, productRepo, cartRepo, policy, nil, 0)
}

func testCart() *models.Cart {
	shirt := &models.Product{ID: "prod-1", Name: "Shirt", Price: 50.0, Stock: 10, Colors: []string{"red", "blue"}, Sizes: []string{"M", "L"}}
	mug := &models.Product{ID: "prod-2", Name: "Mug", Price: 10.0, Stock: 5}
	cart := &models.Cart{
		ID:     "cart-1",
		UserID: "user-1",
		Items: []models.CartItem{
			{ID: "line-1", ProductID: "prod-1", Quantity: 2, Price: 50.0, Variant: models.Variant{Color: "red", Size: "M"}, Product: shirt},
			{ID: "line-2", ProductID: "prod-2", Quantity: 1, Price: 10.0, Product: mug},
		},
	}
	cart.RecalculateTotal()
	return cart
}

func validRequest() services.CreateOrderRequest {
	return services.CreateOrderRequest{
		ShippingAddress: models.ShippingAddress{
			FullName: "Nguyen Van A",
			Phone:    "0900000000",
			Address:  "1 Lang Ha",
		},
		PaymentMethod: models.PaymentMethodCOD,
	}
}

func TestOrderService_CreateOrder_COD(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, productRepo, cartRepo, nil)

	cartRepo.On("GetByUser", "user-1").Return(testCart(), nil).Once()
	orderRepo.On("ExistsByOrderNumber", mock.AnythingOfType("string")).Return(false, nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Order).ID = "order-1"
	}).Return(nil).Once()
	productRepo.On("AdjustInventory", "prod-1", -2, 2).Return(nil).Once()
	productRepo.On("AdjustInventory", "prod-2", -1, 1).Return(nil).Once()
	cartRepo.On("Clear", "cart-1").Return(nil).Once()
	orderRepo.On("GetByID", "order-1").Return(&models.Order{ID: "order-1"}, nil).Once()

	order, err := service.CreateOrder("user-1", validRequest())

	assert.NoError(t, err)
	assert.NotNil(t, order)
	orderRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
	cartRepo.AssertExpectations(t)

	created := orderRepo.Calls[1].Arguments.Get(0).(*models.Order)
	assert.Equal(t, models.OrderPending, created.OrderStatus)
	assert.Equal(t, models.PaymentUnpaid, created.PaymentStatus)
	assert.Nil(t, created.PaidAt)
	assert.Equal(t, 110.0, created.TotalAmount)
	assert.True(t, strings.HasPrefix(created.OrderNumber, "DH"))
	assert.Len(t, created.Items, 2)
	assert.Equal(t, 50.0, created.Items[0].Price)
	assert.Equal(t, models.Variant{Color: "red", Size: "M"}, created.Items[0].Variant)
}

func TestOrderService_CreateOrder_PrepaidMethodIsPaidImmediately(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, productRepo, cartRepo, nil)

	cartRepo.On("GetByUser", "user-1").Return(testCart(), nil).Once()
	orderRepo.On("ExistsByOrderNumber", mock.AnythingOfType("string")).Return(false, nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	productRepo.On("AdjustInventory", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cartRepo.On("Clear", "cart-1").Return(nil).Once()
	orderRepo.On("GetByID", mock.Anything).Return(&models.Order{}, nil).Once()

	req := validRequest()
	req.PaymentMethod = models.PaymentMethodVNPAY
	_, err := service.CreateOrder("user-1", req)
	assert.NoError(t, err)

	created := orderRepo.Calls[1].Arguments.Get(0).(*models.Order)
	assert.Equal(t, models.PaymentPaid, created.PaymentStatus)
	assert.NotNil(t, created.PaidAt)
}

func TestOrderService_CreateOrder_AwaitConfirmationPolicy(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, productRepo, cartRepo, services.AwaitConfirmationPolicy{})

	cartRepo.On("GetByUser", "user-1").Return(testCart(), nil).Once()
	orderRepo.On("ExistsByOrderNumber", mock.AnythingOfType("string")).Return(false, nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	productRepo.On("AdjustInventory", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cartRepo.On("Clear", "cart-1").Return(nil).Once()
	orderRepo.On("GetByID", mock.Anything).Return(&models.Order{}, nil).Once()

	req := validRequest()
	req.PaymentMethod = models.PaymentMethodMOMO
	_, err := service.CreateOrder("user-1", req)
	assert.NoError(t, err)

	created := orderRepo.Calls[1].Arguments.Get(0).(*models.Order)
	assert.Equal(t, models.PaymentUnpaid, created.PaymentStatus)
	assert.Nil(t, created.PaidAt)
}

func TestOrderService_CreateOrder_ValidationListsEveryField(t *testing.T) {
	service := newOrderService(new(MockOrderRepo), new(MockProductRepo), new(MockCartRepo), nil)

	req := services.CreateOrderRequest{PaymentMethod: "PAYPAL"}
	_, err := service.CreateOrder("user-1", req)

	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	assert.Contains(t, verr.Fields, "shipping_address.full_name")
	assert.Contains(t, verr.Fields, "shipping_address.phone")
	assert.Contains(t, verr.Fields, "shipping_address.address")
	assert.Contains(t, verr.Fields, "payment_method")
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), cartRepo, nil)

	// No cart at all.
	cartRepo.On("GetByUser", "user-1").Return(nil, fmt.Errorf("cart for user user-1: %w", repositories.ErrNotFound)).Once()
	_, err := service.CreateOrder("user-1", validRequest())
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	// A cart with no items.
	cartRepo.On("GetByUser", "user-1").Return(&models.Cart{ID: "cart-1", UserID: "user-1"}, nil).Once()
	_, err = service.CreateOrder("user-1", validRequest())
	assert.ErrorIs(t, err, services.ErrEmptyCart)

	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestOrderService_CreateOrder_InsufficientStock(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, productRepo, cartRepo, nil)

	cart := testCart()
	cart.Items[0].Quantity = 20 // shirt stock is 10
	cartRepo.On("GetByUser", "user-1").Return(cart, nil).Once()

	_, err := service.CreateOrder("user-1", validRequest())

	var perr *services.PreconditionError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, "Shirt", perr.ProductName)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
	productRepo.AssertNotCalled(t, "AdjustInventory", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_VariantNotOffered(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), cartRepo, nil)

	cart := testCart()
	cart.Items[0].Variant.Color = "green"
	cartRepo.On("GetByUser", "user-1").Return(cart, nil).Once()

	_, err := service.CreateOrder("user-1", validRequest())

	var perr *services.PreconditionError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, "Shirt", perr.ProductName)
	assert.Contains(t, perr.Reason, "green")
	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestOrderService_CreateOrder_OrderNumberCollisionRetriesOnce(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, productRepo, cartRepo, nil)

	cartRepo.On("GetByUser", "user-1").Return(testCart(), nil).Once()
	// First number is taken, the retry is free.
	orderRepo.On("ExistsByOrderNumber", mock.AnythingOfType("string")).Return(true, nil).Once()
	orderRepo.On("ExistsByOrderNumber", mock.AnythingOfType("string")).Return(false, nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	productRepo.On("AdjustInventory", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cartRepo.On("Clear", "cart-1").Return(nil).Once()
	orderRepo.On("GetByID", mock.Anything).Return(&models.Order{}, nil).Once()

	_, err := service.CreateOrder("user-1", validRequest())
	assert.NoError(t, err)

	created := orderRepo.Calls[2].Arguments.Get(0).(*models.Order)
	assert.True(t, strings.HasSuffix(created.OrderNumber, "_retry"))
	orderRepo.AssertNumberOfCalls(t, "ExistsByOrderNumber", 2)
}

func TestOrderService_CreateOrder_SecondCollisionIsTerminal(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), cartRepo, nil)

	cartRepo.On("GetByUser", "user-1").Return(testCart(), nil).Once()
	orderRepo.On("ExistsByOrderNumber", mock.AnythingOfType("string")).Return(true, nil).Twice()

	_, err := service.CreateOrder("user-1", validRequest())

	assert.ErrorIs(t, err, services.ErrOrderNumberConflict)
	orderRepo.AssertNumberOfCalls(t, "ExistsByOrderNumber", 2)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestOrderService_CreateOrder_InventoryFailureIsBestEffort(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepo)
	cartRepo := new(MockCartRepo)
	service := newOrderService(orderRepo, productRepo, cartRepo, nil)

	cartRepo.On("GetByUser", "user-1").Return(testCart(), nil).Once()
	orderRepo.On("ExistsByOrderNumber", mock.AnythingOfType("string")).Return(false, nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	// One item's adjustment fails; the sibling still runs and the order
	// creation still succeeds.
	productRepo.On("AdjustInventory", "prod-1", -2, 2).Return(fmt.Errorf("prod-1: %w", repositories.ErrStockConflict)).Once()
	productRepo.On("AdjustInventory", "prod-2", -1, 1).Return(nil).Once()
	cartRepo.On("Clear", "cart-1").Return(nil).Once()
	orderRepo.On("GetByID", mock.Anything).Return(&models.Order{}, nil).Once()

	_, err := service.CreateOrder("user-1", validRequest())

	assert.NoError(t, err)
	productRepo.AssertExpectations(t)
}

func TestOrderService_UpdateOrderStatus_DeliveredCODCascade(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), new(MockCartRepo), nil)

	order := &models.Order{
		ID:            "order-1",
		UserID:        "user-1",
		OrderStatus:   models.OrderShipping,
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentUnpaid,
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	orderRepo.On("Update", order).Return(nil).Once()

	updated, err := service.UpdateOrderStatus(admin, "order-1", models.OrderDelivered)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, updated.OrderStatus)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.NotNil(t, updated.PaidAt)
	assert.NotNil(t, updated.DeliveredAt)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_UpdateOrderStatus_IllegalTransitionHasNoSideEffect(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepo)
	service := newOrderService(orderRepo, productRepo, new(MockCartRepo), nil)

	order := &models.Order{
		ID:            "order-1",
		UserID:        "user-1",
		OrderStatus:   models.OrderDelivered,
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentPaid,
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()

	_, err := service.UpdateOrderStatus(admin, "order-1", models.OrderConfirmed)

	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	assert.Equal(t, models.OrderDelivered, order.OrderStatus)
	orderRepo.AssertNotCalled(t, "Update", mock.Anything)
	productRepo.AssertNotCalled(t, "AdjustInventory", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CancelOrder_RefundsAndRestocks(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepo)
	service := newOrderService(orderRepo, productRepo, new(MockCartRepo), nil)

	order := &models.Order{
		ID:            "order-1",
		UserID:        "user-1",
		OrderStatus:   models.OrderConfirmed,
		PaymentMethod: models.PaymentMethodMOMO,
		PaymentStatus: models.PaymentPaid,
		Items: []models.OrderItem{
			{ProductID: "prod-1", Quantity: 2},
			{ProductID: "prod-2", Quantity: 1},
		},
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	orderRepo.On("Update", order).Return(nil).Once()
	productRepo.On("AdjustInventory", "prod-1", 2, -2).Return(nil).Once()
	productRepo.On("AdjustInventory", "prod-2", 1, -1).Return(nil).Once()

	updated, err := service.CancelOrder(buyer, "order-1")

	assert.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, updated.OrderStatus)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
	productRepo.AssertExpectations(t)
}

func TestOrderService_UpdateOrderStatus_CustomerAuthorization(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), new(MockCartRepo), nil)

	// A customer may not confirm their own order.
	order := &models.Order{ID: "order-1", UserID: "user-1", OrderStatus: models.OrderPending}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	_, err := service.UpdateOrderStatus(buyer, "order-1", models.OrderConfirmed)
	assert.ErrorIs(t, err, services.ErrForbidden)

	// A customer may not cancel someone else's order.
	other := &models.Order{ID: "order-2", UserID: "user-2", OrderStatus: models.OrderPending}
	orderRepo.On("GetByID", "order-2").Return(other, nil).Once()
	_, err = service.UpdateOrderStatus(buyer, "order-2", models.OrderCancelled)
	assert.ErrorIs(t, err, services.ErrForbidden)

	orderRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestOrderService_UpdatePaymentStatus_AdminOnlyAndGuarded(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), new(MockCartRepo), nil)

	_, err := service.UpdatePaymentStatus(buyer, "order-1", models.PaymentPaid)
	assert.ErrorIs(t, err, services.ErrForbidden)

	// Cancelled orders only accept a refund.
	order := &models.Order{
		ID:            "order-1",
		OrderStatus:   models.OrderCancelled,
		PaymentMethod: models.PaymentMethodVNPAY,
		PaymentStatus: models.PaymentPaid,
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Twice()
	_, err = service.UpdatePaymentStatus(admin, "order-1", models.PaymentUnpaid)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidPaymentTransition)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)

	orderRepo.On("Update", order).Return(nil).Once()
	updated, err := service.UpdatePaymentStatus(admin, "order-1", models.PaymentRefunded)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
}

func TestOrderService_PayOrder(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), new(MockCartRepo), nil)

	order := &models.Order{
		ID:            "order-1",
		UserID:        "user-1",
		OrderStatus:   models.OrderPending,
		PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentUnpaid,
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Twice()
	orderRepo.On("Update", order).Return(nil).Once()

	updated, err := service.PayOrder(buyer, "order-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.NotNil(t, updated.PaidAt)

	// Paying twice violates the payment table.
	_, err = service.PayOrder(buyer, "order-1")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidPaymentTransition)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), new(MockCartRepo), nil)

	// Not an admin.
	err := service.DeleteOrder(buyer, "order-1")
	assert.ErrorIs(t, err, services.ErrForbidden)

	// A confirmed order cannot be removed.
	confirmed := &models.Order{ID: "order-1", OrderStatus: models.OrderConfirmed}
	orderRepo.On("GetByID", "order-1").Return(confirmed, nil).Once()
	err = service.DeleteOrder(admin, "order-1")
	assert.ErrorIs(t, err, services.ErrOrderNotDeletable)
	orderRepo.AssertNotCalled(t, "Delete", mock.Anything)

	// Pending and cancelled orders can.
	pending := &models.Order{ID: "order-2", OrderStatus: models.OrderPending}
	orderRepo.On("GetByID", "order-2").Return(pending, nil).Once()
	orderRepo.On("Delete", "order-2").Return(nil).Once()
	assert.NoError(t, service.DeleteOrder(admin, "order-2"))

	cancelled := &models.Order{ID: "order-3", OrderStatus: models.OrderCancelled}
	orderRepo.On("GetByID", "order-3").Return(cancelled, nil).Once()
	orderRepo.On("Delete", "order-3").Return(nil).Once()
	assert.NoError(t, service.DeleteOrder(admin, "order-3"))

	orderRepo.AssertExpectations(t)
}

func TestOrderService_GetOrderByID_OwnershipCheck(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepo), new(MockCartRepo), nil)

	order := &models.Order{ID: "order-1", UserID: "user-2"}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Twice()

	_, err := service.GetOrderByID(buyer, "order-1")
	assert.ErrorIs(t, err, services.ErrForbidden)

	got, err := service.GetOrderByID(admin, "order-1")
	assert.NoError(t, err)
	assert.Equal(t, order, got)
}
