package api

import (
	"context"

	"pizzeria-be/internal/catalog"
	"pizzeria-be/internal/order"
	"pizzeria-be/internal/user"

	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in user.RegisterInput) (*user.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, actingID int64, in user.RegisterInput) (*user.User, error) {
	args := m.Called(ctx, actingID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, emailOrUsername, password string) (*user.LoginResult, error) {
	args := m.Called(ctx, emailOrUsername, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.LoginResult), args.Error(1)
}

func (m *MockUserService) Refresh(ctx context.Context, accessToken, refreshToken string) (*user.TokenPair, error) {
	args := m.Called(ctx, accessToken, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.TokenPair), args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, userID int64) (*user.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) UpdateMe(ctx context.Context, userID int64, p user.UpdateProfileParams) (*user.User, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, actingID int64, f user.ListFilter) ([]*user.User, error) {
	args := m.Called(ctx, actingID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, actingID, id int64) (*user.User, error) {
	args := m.Called(ctx, actingID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) ToggleAdmin(ctx context.Context, actingID, id int64) (*user.User, error) {
	args := m.Called(ctx, actingID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) ToggleActive(ctx context.Context, actingID, id int64) (*user.User, error) {
	args := m.Called(ctx, actingID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Stats(ctx context.Context, actingID int64) (*user.Stats, error) {
	args := m.Called(ctx, actingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Stats), args.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Menu(ctx context.Context, f catalog.MenuFilter) ([]*catalog.Item, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Item), args.Error(1)
}

func (m *MockCatalogService) List(ctx context.Context, callerID int64, f catalog.ListFilter) ([]*catalog.Item, error) {
	args := m.Called(ctx, callerID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Item), args.Error(1)
}

func (m *MockCatalogService) Search(ctx context.Context, q string, category *catalog.Category, availableOnly bool) ([]*catalog.Item, error) {
	args := m.Called(ctx, q, category, availableOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Item), args.Error(1)
}

func (m *MockCatalogService) Categories(ctx context.Context) ([]catalog.CategoryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.CategoryCount), args.Error(1)
}

func (m *MockCatalogService) Get(ctx context.Context, id int64) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockCatalogService) Create(ctx context.Context, actingID int64, p catalog.CreateItemParams) (*catalog.Item, error) {
	args := m.Called(ctx, actingID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockCatalogService) Update(ctx context.Context, actingID, id int64, p catalog.UpdateItemParams) (*catalog.Item, error) {
	args := m.Called(ctx, actingID, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockCatalogService) ToggleAvailability(ctx context.Context, actingID, id int64) (*catalog.Item, error) {
	args := m.Called(ctx, actingID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockCatalogService) Delete(ctx context.Context, actingID, id int64) (*catalog.DeleteResult, error) {
	args := m.Called(ctx, actingID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.DeleteResult), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID int64, in order.CreateInput) (*order.Order, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) AddItem(ctx context.Context, userID, orderID int64, in order.AddItemInput) (*order.AddItemResult, error) {
	args := m.Called(ctx, userID, orderID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.AddItemResult), args.Error(1)
}

func (m *MockOrderService) RemoveItem(ctx context.Context, userID, orderID, lineID int64) (*order.RemoveItemResult, error) {
	args := m.Called(ctx, userID, orderID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.RemoveItemResult), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID, orderID int64) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListMine(ctx context.Context, userID int64, f order.ListFilter) ([]*order.Summary, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Summary), args.Error(1)
}

func (m *MockOrderService) ListAll(ctx context.Context, userID int64, f order.ListFilter) ([]*order.Summary, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Summary), args.Error(1)
}

func (m *MockOrderService) SetStatus(ctx context.Context, userID, orderID int64, status string) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, userID, orderID int64) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Statistics(ctx context.Context, userID int64) (*order.Statistics, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Statistics), args.Error(1)
}
